// pkg/notify/notifier.go
package notify

import (
	"fmt"
	"log"
	"time"

	"MoonSniper/pkg/config"
	"MoonSniper/pkg/model"
)

// DeliveryError 单个接收方投递失败
// 只影响该接收方，其余接收方照常投递
type DeliveryError struct {
	Channel   model.Channel
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("渠道 %s 投递到 %s 失败: %v", e.Channel, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Notifier 单渠道通知器
type Notifier interface {
	Notify(trigger model.Trigger) []model.NotificationRecord
}

// Dispatcher 按规则渠道派发通知
// 派发是尽力而为：不重试、不阻塞其他规则
type Dispatcher struct {
	notifiers map[model.Channel]Notifier
}

// NewDispatcher 按配置创建所有渠道的派发器
func NewDispatcher(cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		notifiers: map[model.Channel]Notifier{
			model.ChannelDesktop: NewDesktopNotifier(cfg.App.Name),
			model.ChannelWebhook: NewWebhookNotifier(cfg.Alerts.DefaultWebhook, cfg.Alerts.Username),
			model.ChannelEmail: NewEmailNotifier(
				cfg.Alerts.BrevoKey,
				cfg.Alerts.DefaultEmail,
				cfg.Alerts.SenderName,
				cfg.Alerts.SenderEmail,
			),
		},
	}
}

// Dispatch 派发单个触发，返回每个接收方的投递记录
func (d *Dispatcher) Dispatch(trigger model.Trigger) []model.NotificationRecord {
	notifier, ok := d.notifiers[trigger.Rule.Channel]
	if !ok {
		log.Printf("[Dispatch Error] 规则 %s 使用未知渠道 %q", trigger.Rule.ID, trigger.Rule.Channel)
		return []model.NotificationRecord{{
			Channel:   trigger.Rule.Channel,
			Status:    "failed",
			Error:     fmt.Sprintf("未知渠道 %q", trigger.Rule.Channel),
			CreatedAt: time.Now(),
		}}
	}
	return notifier.Notify(trigger)
}
