// pkg/notify/email.go
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

// brevoEndpoint Brevo事务邮件API地址
const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailNotifier 邮件通知，走Brevo事务邮件API
type EmailNotifier struct {
	apiKey       string
	defaultEmail string
	senderName   string
	senderEmail  string
	endpoint     string
	client       *http.Client
}

// brevoRequest Brevo API请求体
type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	TextContent string         `json:"textContent"`
}

type brevoAddress struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type brevoContact struct {
	Email string `json:"email"`
}

// NewEmailNotifier 创建邮件通知器
func NewEmailNotifier(apiKey, defaultEmail, senderName, senderEmail string) *EmailNotifier {
	return &EmailNotifier{
		apiKey:       apiKey,
		defaultEmail: defaultEmail,
		senderName:   senderName,
		senderEmail:  senderEmail,
		endpoint:     brevoEndpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify 向每个收件人独立发送一封邮件
// 未配置API密钥时跳过发送，只记一条提示，不算错误
func (n *EmailNotifier) Notify(trigger model.Trigger) []model.NotificationRecord {
	recipients := trigger.Rule.Recipients
	if len(recipients) == 0 && n.defaultEmail != "" {
		recipients = []string{n.defaultEmail}
	}
	if len(recipients) == 0 {
		log.Printf("[Email Alert] 规则 %s 没有可用的收件地址", trigger.Rule.ID)
		return nil
	}

	if n.apiKey == "" {
		log.Println("[Email Alert] 未配置Brevo API密钥，跳过发送")
		records := make([]model.NotificationRecord, 0, len(recipients))
		for _, to := range recipients {
			records = append(records, model.NotificationRecord{
				Channel:   model.ChannelEmail,
				Recipient: to,
				Status:    "skipped",
				CreatedAt: time.Now(),
			})
		}
		return records
	}

	subject := fmt.Sprintf("📈 %s Alert Triggered", n.senderName)

	records := make([]model.NotificationRecord, 0, len(recipients))
	for _, to := range recipients {
		record := model.NotificationRecord{
			Channel:   model.ChannelEmail,
			Recipient: to,
			Status:    "sent",
			CreatedAt: time.Now(),
		}
		if err := n.send(to, subject, trigger.Rule.Message); err != nil {
			derr := &DeliveryError{Channel: model.ChannelEmail, Recipient: to, Err: err}
			log.Printf("[Email Error] %v", derr)
			record.Status = "failed"
			record.Error = err.Error()
		} else {
			log.Printf("[Email Sent] %s -> %s", trigger.Rule.Message, to)
		}
		records = append(records, record)
	}

	return records
}

// send 调用Brevo发送单封邮件，成功状态码为201
func (n *EmailNotifier) send(to, subject, content string) error {
	reqBody := brevoRequest{
		Sender:      brevoAddress{Name: n.senderName, Email: n.senderEmail},
		To:          []brevoContact{{Email: to}},
		Subject:     subject,
		TextContent: content,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("api-key", n.apiKey)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("状态码 %d: %s", resp.StatusCode, string(text))
	}

	return nil
}
