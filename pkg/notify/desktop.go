// pkg/notify/desktop.go
package notify

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"time"

	"MoonSniper/pkg/model"
)

// desktopBodyLimit 桌面通知正文上限（Windows通知上限256字符）
const desktopBodyLimit = 250

// DesktopNotifier 本机桌面通知
type DesktopNotifier struct {
	appName string
	// send 可替换以便测试；默认调用平台通知命令
	send func(title, body string) error
}

// NewDesktopNotifier 创建桌面通知器
func NewDesktopNotifier(appName string) *DesktopNotifier {
	return &DesktopNotifier{
		appName: appName,
		send:    sendPlatformNotification,
	}
}

// Notify 发送桌面通知
// 本机没有通知后端属于正常情况，失败只记日志
func (n *DesktopNotifier) Notify(trigger model.Trigger) []model.NotificationRecord {
	title := fmt.Sprintf("🌒 %s Alert %s", n.appName, time.Now().Format("15:04:05"))
	body := truncateBody(fmt.Sprintf("%s - %s", trigger.Ticker, trigger.Rule.Message))

	record := model.NotificationRecord{
		Channel:   model.ChannelDesktop,
		Recipient: "desktop",
		Status:    "sent",
		CreatedAt: time.Now(),
	}

	if err := n.send(title, body); err != nil {
		derr := &DeliveryError{Channel: model.ChannelDesktop, Recipient: "desktop", Err: err}
		log.Printf("[Desktop Alert Error] %v", derr)
		record.Status = "failed"
		record.Error = err.Error()
	} else {
		log.Printf("[Desktop Alert] %s", trigger.Rule.Message)
	}

	return []model.NotificationRecord{record}
}

// truncateBody 超长正文截断为247字符加省略号
func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= desktopBodyLimit {
		return body
	}
	return string(runes[:desktopBodyLimit-3]) + "..."
}

// sendPlatformNotification 调用各平台的桌面通知命令
func sendPlatformNotification(title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		return exec.Command("notify-send", title, body).Run()
	default:
		return fmt.Errorf("平台 %s 不支持桌面通知", runtime.GOOS)
	}
}
