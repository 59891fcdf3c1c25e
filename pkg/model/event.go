// pkg/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trigger 一次待派发的触发，规则+触发行+股票代码
type Trigger struct {
	Rule    AlertRule
	Row     MetricsRow
	Ticker  string
	Scanner bool // 是否来自Scanner规则
}

// AlertEvent 已触发的预警事件，持久化到历史库
type AlertEvent struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	RuleID     string    `gorm:"type:varchar(64);index" json:"rule_id"`
	Ticker     string    `gorm:"type:varchar(20);index" json:"ticker"`
	Expression string    `gorm:"type:text" json:"expression"`
	Message    string    `gorm:"type:text" json:"message"`
	Channel    Channel   `gorm:"type:varchar(20);not null;index" json:"channel"`
	Scanner    bool      `gorm:"default:false" json:"scanner"` // 是否来自Scanner规则
	CreatedAt  time.Time `gorm:"index:idx_created_at" json:"created_at"`

	// 通知记录
	Notifications []NotificationRecord `gorm:"foreignKey:EventID" json:"notifications,omitempty"`
}

func (a *AlertEvent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (AlertEvent) TableName() string {
	return "alert_events"
}

// NotificationRecord 单个接收方的投递记录
type NotificationRecord struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   string    `gorm:"type:uuid;not null;index" json:"event_id"`
	Channel   Channel   `gorm:"type:varchar(20);not null" json:"channel"`
	Recipient string    `gorm:"type:varchar(255)" json:"recipient"`
	Status    string    `gorm:"type:varchar(20);default:'pending'" json:"status"` // sent, failed, skipped
	Error     string    `gorm:"type:text" json:"error"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *NotificationRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (NotificationRecord) TableName() string {
	return "notification_records"
}
