package main

import (
	"log"
	"os"
	"time"

	"MoonSniper/pkg/collector"
	"MoonSniper/pkg/config"
	"MoonSniper/pkg/database"
	"MoonSniper/pkg/engine"
	"MoonSniper/pkg/expr"
	"MoonSniper/pkg/messaging"
	"MoonSniper/pkg/model"
	"MoonSniper/pkg/store"
)

func main() {
	log.Println("开始系统验证...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/dev/app.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 测试表达式引擎
	testExpressionEngine()

	// 测试规则存储
	testRuleStore(cfg)

	// 测试规则评估
	testRuleEvaluation()

	// 测试数据采集
	testDataCollection(cfg)

	// 测试NATS（如果配置了）
	if cfg.NATS.URL != "" {
		testNATS(cfg)
	} else {
		log.Println("未配置NATS，跳过消息队列测试")
	}

	// 测试数据库（如果配置了）
	if cfg.Database.Postgres.Host != "" {
		testDatabase(cfg)
	} else {
		log.Println("未配置数据库，跳过历史库测试")
	}

	log.Println("系统验证完成")
}

// 测试表达式引擎
func testExpressionEngine() {
	log.Println("测试表达式引擎...")

	row := map[string]interface{}{
		"Ticker":     "AAPL",
		"Price":      182.5,
		"RSI":        25.0,
		"Volume":     2000000.0,
		"Market Cap": 2.8e12,
	}

	cases := []string{
		"RSI < 30",
		"Price > 100 and Volume > 1000000",
		"MarketCap > 1000000000000",
	}
	for _, expression := range cases {
		result, err := expr.Evaluate(expression, row)
		if err != nil {
			log.Printf("表达式求值失败: %s -> %v\n", expression, err)
			continue
		}
		log.Printf("表达式: %s = %v\n", expression, result)
	}
}

// 测试规则存储
func testRuleStore(cfg *config.Config) {
	log.Println("测试规则存储...")

	s := store.NewStore(cfg.Alerts.File)
	doc, err := s.Load()
	if err != nil {
		log.Printf("加载规则文档失败: %v\n", err)
		return
	}

	log.Printf("规则文档加载成功: %d只股票, %d条Scanner规则\n",
		len(doc.Tickers), len(doc.Scanners))

	if err := s.Save(doc); err != nil {
		log.Printf("写回规则文档失败: %v\n", err)
	} else {
		log.Println("规则文档写回成功")
	}
}

// 测试规则评估
func testRuleEvaluation() {
	log.Println("测试规则评估...")

	doc := model.NewAlertDocument()
	doc.Tickers["AAPL"] = []model.AlertRule{
		{
			ID:         "aapl_desktop1",
			Expression: "RSI < 30",
			Message:    "AAPL超卖",
			Channel:    model.ChannelDesktop,
		},
	}

	table := model.MetricsTable{
		{"Ticker": "AAPL", "RSI": 25.0},
	}

	tracker := engine.NewTriggerTracker()
	triggers := tracker.EvaluateDocument(doc, table)
	log.Printf("规则评估完成，产生%d个触发\n", len(triggers))
}

// 测试数据采集
func testDataCollection(cfg *config.Config) {
	log.Println("测试数据采集...")

	client := collector.NewQuoteAPIClient(
		cfg.DataSources.QuoteAPI.APIKey,
		cfg.DataSources.QuoteAPI.BaseURL,
		cfg.DataSources.QuoteAPI.Timeout,
	)

	fetcher, err := collector.NewWatchlistFetcher(client, cfg.DataSources.WatchlistsDir)
	if err != nil {
		log.Printf("加载自选股清单失败: %v\n", err)
		return
	}
	log.Printf("自选股清单: %d只股票\n", len(fetcher.Tickers()))

	table, err := fetcher.FetchAll()
	if err != nil {
		log.Printf("数据采集失败: %v\n", err)
		return
	}

	log.Printf("成功获取%d行指标数据\n", len(table))
	for _, row := range table {
		log.Printf("股票: %s, 指标数: %d\n", row.Ticker(), len(row))
	}
}

// 测试NATS
func testNATS(cfg *config.Config) {
	log.Println("测试NATS消息队列...")

	publisher, err := messaging.NewPublisher(cfg.NATS.URL, cfg.NATS.ClientID+"-verifier")
	if err != nil {
		log.Printf("连接NATS失败: %v\n", err)
		return
	}
	defer publisher.Close()

	event := &model.AlertEvent{
		RuleID:     "aapl_desktop1",
		Ticker:     "AAPL",
		Expression: "RSI < 30",
		Message:    "验证用测试事件",
		Channel:    model.ChannelDesktop,
		CreatedAt:  time.Now(),
	}

	if err := publisher.PublishAlert(event); err != nil {
		log.Printf("发布预警事件失败: %v\n", err)
	} else {
		log.Println("发布预警事件成功")
	}
}

// 测试数据库
func testDatabase(cfg *config.Config) {
	log.Println("测试历史库...")

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Printf("连接数据库失败: %v\n", err)
		return
	}
	defer db.Close()

	events, err := db.GetAlertHistory("", 10)
	if err != nil {
		log.Printf("获取预警历史失败: %v\n", err)
	} else {
		log.Printf("获取到%d条预警历史\n", len(events))
	}
}
