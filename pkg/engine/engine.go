// pkg/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"MoonSniper/pkg/model"
	"MoonSniper/pkg/store"
)

// MetricsFetcher 指标表供给方，行情抓取与指标计算由外部协作方实现
type MetricsFetcher interface {
	FetchAll() (model.MetricsTable, error)
}

// Dispatcher 通知派发方，返回每个接收方的投递记录
type Dispatcher interface {
	Dispatch(trigger model.Trigger) []model.NotificationRecord
}

// HistoryStore 预警历史存储，可选
type HistoryStore interface {
	SaveAlertEvent(event *model.AlertEvent) error
	SaveNotificationRecords(records []model.NotificationRecord) error
}

// EventPublisher 触发事件发布方，可选
type EventPublisher interface {
	PublishAlert(event *model.AlertEvent) error
}

// Engine 预警扫描引擎
// 每轮：读文档 -> 取指标表 -> 评估规则 -> 写回文档 -> 派发通知
type Engine struct {
	store      *store.Store
	fetcher    MetricsFetcher
	dispatcher Dispatcher
	history    HistoryStore   // 可为nil
	publisher  EventPublisher // 可为nil
	interval   time.Duration
}

// NewEngine 创建扫描引擎
func NewEngine(
	ruleStore *store.Store,
	fetcher MetricsFetcher,
	dispatcher Dispatcher,
	history HistoryStore,
	publisher EventPublisher,
	interval time.Duration,
) *Engine {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Engine{
		store:      ruleStore,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		history:    history,
		publisher:  publisher,
		interval:   interval,
	}
}

// RunPass 执行一轮扫描
// 任何错误只终止本轮，循环照常继续
func (e *Engine) RunPass() error {
	doc, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("加载规则文档失败: %w", err)
	}

	table, err := e.fetcher.FetchAll()
	if err != nil {
		return fmt.Errorf("获取指标表失败: %w", err)
	}

	tracker := NewTriggerTracker()
	triggers := tracker.EvaluateDocument(doc, table)

	// 先持久化再派发：写回失败时跳过派发，下一轮用旧文档重试，
	// 避免已派发的Ticker规则留在文档里重复触发
	if err := e.store.Save(doc); err != nil {
		return fmt.Errorf("写回规则文档失败: %w", err)
	}

	for _, trigger := range triggers {
		e.handleTrigger(trigger)
	}

	return nil
}

// handleTrigger 派发单个触发并记录结果
func (e *Engine) handleTrigger(trigger model.Trigger) {
	records := e.dispatcher.Dispatch(trigger)

	event := &model.AlertEvent{
		RuleID:     trigger.Rule.ID,
		Ticker:     trigger.Ticker,
		Expression: trigger.Rule.Expression,
		Message:    trigger.Rule.Message,
		Channel:    trigger.Rule.Channel,
		Scanner:    trigger.Scanner,
		CreatedAt:  time.Now(),
	}

	if e.history != nil {
		if err := e.history.SaveAlertEvent(event); err != nil {
			log.Printf("[History Error] 保存预警事件失败: %v", err)
		} else {
			for i := range records {
				records[i].EventID = event.ID
			}
			if err := e.history.SaveNotificationRecords(records); err != nil {
				log.Printf("[History Error] 保存投递记录失败: %v", err)
			}
		}
	}

	if e.publisher != nil {
		if err := e.publisher.PublishAlert(event); err != nil {
			log.Printf("[Publish Error] 发布预警事件失败: %v", err)
		}
	}
}

// Run 扫描循环，ctx取消后完成当前轮再退出
func (e *Engine) Run(ctx context.Context) {
	log.Printf("[Daemon] 扫描循环启动，间隔 %s", e.interval)
	for {
		if err := e.RunPass(); err != nil {
			log.Printf("[Daemon Error] %v", err)
		} else {
			log.Println("[Daemon] 本轮预警检查完成")
		}

		select {
		case <-ctx.Done():
			log.Println("[Daemon] 收到停止信号，扫描循环退出")
			return
		case <-time.After(e.interval):
		}
	}
}
