package notifications

// Event identifies a notification category.
type Event string

const (
	EventItemPosted       Event = "item_posted"
	EventItemRetrying     Event = "item_retrying"
	EventItemFailed       Event = "item_failed"
	EventSessionExpired   Event = "session_expired"
	EventDaemonStarted    Event = "daemon_started"
	EventTestNotification Event = "test"
)

// Payload carries event fields. Known keys: filename, caption, error, retry,
// max_retry, slot, message.
type Payload map[string]any
