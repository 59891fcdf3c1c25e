package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MoonSniper/pkg/collector"
	"MoonSniper/pkg/config"
	"MoonSniper/pkg/database"
	"MoonSniper/pkg/engine"
	"MoonSniper/pkg/messaging"
	"MoonSniper/pkg/notify"
	"MoonSniper/pkg/scheduler"
	"MoonSniper/pkg/store"
)

func main() {
	log.Println("[Daemon] 启动预警守护进程...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 规则存储
	ruleStore := store.NewStore(cfg.Alerts.File)

	// 指标供给器
	quoteClient := collector.NewQuoteAPIClient(
		cfg.DataSources.QuoteAPI.APIKey,
		cfg.DataSources.QuoteAPI.BaseURL,
		cfg.DataSources.QuoteAPI.Timeout,
	)
	fetcher, err := collector.NewWatchlistFetcher(quoteClient, cfg.DataSources.WatchlistsDir)
	if err != nil {
		log.Fatalf("初始化指标供给器失败: %v\n", err)
	}

	// 通知派发器
	dispatcher := notify.NewDispatcher(cfg)

	// 历史库，未配置时跳过
	var db *database.Database
	var history engine.HistoryStore
	if cfg.Database.Postgres.Host != "" {
		db, err = database.NewDatabase(cfg)
		if err != nil {
			log.Fatalf("连接数据库失败: %v\n", err)
		}
		defer db.Close()
		history = db
	} else {
		log.Println("[Daemon] 历史库未配置，预警历史不落库")
	}

	// NATS发布器，未配置时跳过
	var publisher engine.EventPublisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := messaging.NewPublisher(cfg.NATS.URL, cfg.NATS.ClientID+"-daemon")
		if err != nil {
			log.Fatalf("连接NATS失败: %v\n", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		log.Println("[Daemon] NATS未配置，触发事件不发布")
	}

	// 定时任务
	sched := scheduler.NewScheduler(fetcher, dispatcher, db)
	sched.Start()
	defer sched.Stop()

	// 扫描引擎
	eng := engine.NewEngine(ruleStore, fetcher, dispatcher, history, publisher, cfg.Alerts.Interval)

	// 收到中断信号后完成当前轮再退出
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng.Run(ctx)

	log.Println("[Daemon] 预警守护进程已退出")
}
