// pkg/scheduler/task.go
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"MoonSniper/pkg/collector"
	"MoonSniper/pkg/database"
	"MoonSniper/pkg/model"
	"MoonSniper/pkg/notify"
)

// Scheduler 扫描循环之外的定时任务
type Scheduler struct {
	cron       *cron.Cron
	fetcher    *collector.WatchlistFetcher
	dispatcher *notify.Dispatcher
	db         *database.Database // 可为nil，历史库未配置时跳过总结任务
}

// NewScheduler 创建任务调度器
func NewScheduler(fetcher *collector.WatchlistFetcher, dispatcher *notify.Dispatcher, db *database.Database) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		fetcher:    fetcher,
		dispatcher: dispatcher,
		db:         db,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() {
	// 每小时刷新自选股清单
	s.cron.AddFunc("@every 1h", func() {
		if err := s.fetcher.Reload(); err != nil {
			log.Printf("[Scheduler] %v", err)
		}
	})

	// 交易日收盘后发送每日总结
	s.cron.AddFunc("0 5 22 * * 1-5", s.sendDailySummary)

	s.cron.Start()
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// sendDailySummary 汇总当日预警事件并通过桌面通知发送
func (s *Scheduler) sendDailySummary() {
	if s.db == nil {
		return
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, err := s.db.GetEventsSince(midnight)
	if err != nil {
		log.Printf("[Scheduler] 查询当日预警事件失败: %v", err)
		return
	}

	summary := buildDailySummary(events)
	s.dispatcher.Dispatch(model.Trigger{
		Rule: model.AlertRule{
			ID:      "daily_summary",
			Message: summary,
			Channel: model.ChannelDesktop,
		},
		Ticker: "SUMMARY",
	})
	log.Printf("[Scheduler] 每日总结已发送，共 %d 条预警", len(events))
}

// buildDailySummary 生成每日总结文本
func buildDailySummary(events []model.AlertEvent) string {
	if len(events) == 0 {
		return "今日自选股表现平稳，无预警触发。"
	}

	summary := fmt.Sprintf("今日预警总结 (%d条)\n", len(events))
	for _, event := range events {
		summary += fmt.Sprintf("- %s: %s\n", event.Ticker, event.Message)
	}
	return summary
}
