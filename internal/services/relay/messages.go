package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Tgrelay/internal/domain/alert"
)

const alertTimeLayout = "2006-01-02 15:04:05"

// FormatAlert renders an alert as Telegram HTML. Fields are inserted as-is so
// callers may use inline markup in message.
func FormatAlert(req alert.Request, at time.Time) string {
	req = req.WithDefaults()
	return strings.TrimSpace(fmt.Sprintf(
		"🚨 <b>HLS Stream Alert</b>\n\n"+
			"📺 <b>Stream:</b> %s\n"+
			"⚠️ <b>Type:</b> %s\n"+
			"⏰ <b>Time:</b> %s\n\n"+
			"%s",
		req.StreamName, req.ErrorType, at.Format(alertTimeLayout), req.Message,
	))
}

func testNotificationText(product string) string {
	return fmt.Sprintf(
		"🧪 <b>Test Notification</b>\n\n"+
			"This is a test message from your %s notification system.\n\n"+
			"✅ If you receive this message, your notification system is working correctly!",
		product,
	)
}

const configTestText = "🧪 <b>Configuration Test</b>\n\n" +
	"This is a test message to verify your chat ID configuration.\n\n" +
	"✅ If you receive this message, your configuration is correct!"

// RedactToken keeps at most n leading characters of token, never more than
// half of it, and appends an ellipsis.
func RedactToken(token string, n int) string {
	if n <= 0 {
		n = 20
	}
	if half := len(token) / 2; n > half {
		n = half
	}
	return token[:n] + "..."
}
