// pkg/model/alert.go
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Channel 通知渠道枚举
type Channel string

const (
	ChannelDesktop Channel = "desktop"
	ChannelWebhook Channel = "webhook"
	ChannelEmail   Channel = "email"
)

// IsValid 检查渠道是否合法
func (c Channel) IsValid() bool {
	switch c {
	case ChannelDesktop, ChannelWebhook, ChannelEmail:
		return true
	}
	return false
}

// AlertRule 预警规则
// Ticker规则触发后从列表中移除；Scanner规则触发后把股票代码记入Triggered，不再重复触发
type AlertRule struct {
	ID         string   `json:"id"`
	Expression string   `json:"expression"`
	Message    string   `json:"message"`
	Channel    Channel  `json:"channel"`
	Recipients []string `json:"recipients,omitempty"`
	Username   string   `json:"username,omitempty"`
	Triggered  []string `json:"triggered,omitempty"` // 仅Scanner规则使用
}

// alertRuleWire 磁盘格式，兼容历史文档：
// recipients 可以是字符串或字符串数组；旧文档用 channels 数组代替 channel
type alertRuleWire struct {
	ID         string          `json:"id"`
	Expression string          `json:"expression"`
	Message    string          `json:"message"`
	Channel    Channel         `json:"channel"`
	Channels   []Channel       `json:"channels,omitempty"`
	Recipients json.RawMessage `json:"recipients,omitempty"`
	Username   string          `json:"username,omitempty"`
	Triggered  []string        `json:"triggered,omitempty"`
}

// UnmarshalJSON 解析规则并归一化历史字段
func (r *AlertRule) UnmarshalJSON(data []byte) error {
	var wire alertRuleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.ID = wire.ID
	r.Expression = wire.Expression
	r.Message = wire.Message
	r.Username = wire.Username
	r.Triggered = wire.Triggered

	// 旧文档使用 channels 数组，取第一个；默认桌面通知
	r.Channel = wire.Channel
	if r.Channel == "" {
		if len(wire.Channels) > 0 {
			r.Channel = wire.Channels[0]
		} else {
			r.Channel = ChannelDesktop
		}
	}

	// recipients 兼容单个字符串
	if len(wire.Recipients) > 0 {
		var list []string
		if err := json.Unmarshal(wire.Recipients, &list); err != nil {
			var single string
			if err := json.Unmarshal(wire.Recipients, &single); err != nil {
				return fmt.Errorf("解析recipients失败: %w", err)
			}
			list = []string{single}
		}
		r.Recipients = list
	} else {
		r.Recipients = nil
	}

	return nil
}

// HasTriggered 检查Scanner规则是否已对某股票触发过
func (r *AlertRule) HasTriggered(ticker string) bool {
	for _, t := range r.Triggered {
		if t == ticker {
			return true
		}
	}
	return false
}

// MarkTriggered 记录Scanner规则的触发股票
func (r *AlertRule) MarkTriggered(ticker string) {
	if !r.HasTriggered(ticker) {
		r.Triggered = append(r.Triggered, ticker)
	}
}

// AlertDocument 预警规则文档，对应 alerts.json 的完整内容
type AlertDocument struct {
	Tickers  map[string][]AlertRule `json:"tickers"`
	Scanners []AlertRule            `json:"scanners"`
}

// NewAlertDocument 创建空文档
func NewAlertDocument() *AlertDocument {
	return &AlertDocument{
		Tickers:  make(map[string][]AlertRule),
		Scanners: make([]AlertRule, 0),
	}
}

// Normalize 保证容器字段非nil，反序列化后调用
func (d *AlertDocument) Normalize() {
	if d.Tickers == nil {
		d.Tickers = make(map[string][]AlertRule)
	}
	if d.Scanners == nil {
		d.Scanners = make([]AlertRule, 0)
	}
}

// GenerateRuleID 生成规则ID，格式 {scope}_{channel}{n}，在各自作用域内唯一
// ticker为空时作用域为scanner列表
func (d *AlertDocument) GenerateRuleID(ticker string, channel Channel) string {
	base := "scanner"
	var existing []AlertRule
	if ticker != "" {
		base = strings.ToLower(ticker)
		existing = d.Tickers[strings.ToUpper(ticker)]
	} else {
		existing = d.Scanners
	}

	ids := make(map[string]bool, len(existing))
	for _, r := range existing {
		if r.ID != "" {
			ids[r.ID] = true
		}
	}

	count := 1
	for {
		id := fmt.Sprintf("%s_%s%d", base, channel, count)
		if !ids[id] {
			return id
		}
		count++
	}
}

// FindTickerRule 按ID查找Ticker规则，返回规则下标
func (d *AlertDocument) FindTickerRule(ticker, id string) int {
	for i, r := range d.Tickers[ticker] {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// FindScannerRule 按ID查找Scanner规则，返回规则下标
func (d *AlertDocument) FindScannerRule(id string) int {
	for i, r := range d.Scanners {
		if r.ID == id {
			return i
		}
	}
	return -1
}
