// pkg/notify/webhook.go
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"MoonSniper/pkg/model"
)

// WebhookNotifier webhook通知，Discord兼容
type WebhookNotifier struct {
	defaultURLs     []string
	defaultUsername string
	client          *http.Client
}

// webhookPayload POST请求体
type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// NewWebhookNotifier 创建webhook通知器
func NewWebhookNotifier(defaultURLs []string, defaultUsername string) *WebhookNotifier {
	return &WebhookNotifier{
		defaultURLs:     defaultURLs,
		defaultUsername: defaultUsername,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify 向每个URL独立投递，单个URL失败不影响其他URL
func (n *WebhookNotifier) Notify(trigger model.Trigger) []model.NotificationRecord {
	urls := trigger.Rule.Recipients
	if len(urls) == 0 {
		urls = n.defaultURLs
	}
	if len(urls) == 0 {
		log.Printf("[Webhook Error] 规则 %s 没有可用的webhook地址", trigger.Rule.ID)
		return nil
	}

	username := trigger.Rule.Username
	if username == "" {
		username = n.defaultUsername
	}

	payload := webhookPayload{
		Content:  trigger.Rule.Message,
		Username: username,
	}

	records := make([]model.NotificationRecord, 0, len(urls))
	for _, url := range urls {
		record := model.NotificationRecord{
			Channel:   model.ChannelWebhook,
			Recipient: url,
			Status:    "sent",
			CreatedAt: time.Now(),
		}
		if err := n.post(url, payload); err != nil {
			derr := &DeliveryError{Channel: model.ChannelWebhook, Recipient: url, Err: err}
			log.Printf("[Webhook Error] %v", derr)
			record.Status = "failed"
			record.Error = err.Error()
		} else {
			log.Printf("[Webhook Alert] %s -> %s", payload.Content, url)
		}
		records = append(records, record)
	}

	return records
}

// post 发送单个webhook请求
// Discord成功时返回204，部分服务返回200，两者都算成功
func (n *WebhookNotifier) post(url string, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("状态码 %d: %s", resp.StatusCode, string(text))
	}

	return nil
}
