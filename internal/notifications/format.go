package notifications

import (
	"fmt"
	"strings"
)

// formatMessage renders an event as message text. Unknown events are
// suppressed.
func formatMessage(event Event, payload Payload) (string, bool) {
	filename := payloadString(payload, "filename")
	switch event {
	case EventItemPosted:
		msg := fmt.Sprintf("✅ Posted: %s", filename)
		if note := payloadString(payload, "message"); note != "" {
			msg += "\n" + note
		}
		return msg, true
	case EventItemRetrying:
		return fmt.Sprintf("🔁 Retry %s/%s scheduled: %s\n%s",
			payloadString(payload, "retry"),
			payloadString(payload, "max_retry"),
			filename,
			payloadString(payload, "error"),
		), true
	case EventItemFailed:
		return fmt.Sprintf("❌ Failed: %s\n%s", filename, payloadString(payload, "error")), true
	case EventSessionExpired:
		return "🔒 Session expired. Log in again through the browser profile, then run: autopost session check", true
	case EventDaemonStarted:
		return fmt.Sprintf("▶️ autopost started. Slots: %s", payloadString(payload, "slots")), true
	case EventTestNotification:
		return "🧪 autopost notification test", true
	default:
		return "", false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}
