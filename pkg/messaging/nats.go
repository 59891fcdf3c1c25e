// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"MoonSniper/pkg/model"
)

// alertsStreamName 预警事件流
const alertsStreamName = "ALERTS_STREAM"

// subjectAlertTriggered 触发事件主题
const subjectAlertTriggered = "alerts.triggered"

// Publisher NATS JetStream预警事件发布器
// 仪表盘等下游消费者从流里读取触发事件
type Publisher struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPublisher 创建发布器并确保预警流存在
func NewPublisher(natsURL, clientID string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(clientID),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Publisher{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := p.setupStream(); err != nil {
		log.Printf("警告: 设置Stream失败: %v", err)
	}

	return p, nil
}

// setupStream 创建或更新预警事件流
func (p *Publisher) setupStream() error {
	streamConfig := jetstream.StreamConfig{
		Name:        alertsStreamName,
		Subjects:    []string{"alerts.*"},
		Description: "预警触发事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    50 * 1024 * 1024,   // 50MB
		MaxAge:      7 * 24 * time.Hour, // 保留7天
	}

	_, err := p.jetStream.CreateOrUpdateStream(p.ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("创建/更新Stream %s 失败: %w", alertsStreamName, err)
	}

	log.Printf("Stream %s 设置成功", alertsStreamName)
	return nil
}

// PublishAlert 发布触发事件
func (p *Publisher) PublishAlert(event *model.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化预警事件失败: %w", err)
	}

	_, err = p.jetStream.Publish(p.ctx, subjectAlertTriggered, payload)
	if err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subjectAlertTriggered, err)
	}

	return nil
}

// Close 关闭连接
func (p *Publisher) Close() error {
	p.cancel()
	if p.conn != nil {
		p.conn.Close()
	}
	log.Println("NATS连接已关闭")
	return nil
}

// IsConnected 检查连接状态
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
