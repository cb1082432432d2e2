package ipc

import (
	"time"

	"autopost/internal/diagnostics"
	"autopost/internal/preflight"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
)

// ServiceName is the JSON-RPC service the daemon registers.
const ServiceName = "Autopost"

// QueueItem is the wire representation of a queue entry.
type QueueItem struct {
	ID           int64      `json:"id"`
	Filename     string     `json:"filename"`
	FilePath     string     `json:"file_path"`
	Caption      string     `json:"caption"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SubmittedBy  string     `json:"submitted_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FromQueueItem converts a store item into its wire form.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:           item.ID,
		Filename:     item.Filename,
		FilePath:     item.FilePath,
		Caption:      item.Caption,
		Status:       string(item.Status),
		RetryCount:   item.RetryCount,
		ErrorMessage: item.ErrorMessage,
		SubmittedBy:  item.SubmittedBy,
		CreatedAt:    item.CreatedAt,
		PostedAt:     item.PostedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// StartRequest triggers scheduler startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the scheduler.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and scheduler status information.
type StatusResponse struct {
	Running     bool                   `json:"running"`
	PID         int                    `json:"pid"`
	LockPath    string                 `json:"lock_path"`
	QueueDBPath string                 `json:"queue_db_path"`
	LogPath     string                 `json:"log_path"`
	Scheduling  bool                   `json:"scheduling"`
	Busy        bool                   `json:"busy"`
	Timezone    string                 `json:"timezone"`
	MaxRetry    int                    `json:"max_retry"`
	Slots       []scheduler.SlotStatus `json:"slots"`
	QueueStats  map[string]int         `json:"queue_stats"`
	LastReport  *scheduler.Report      `json:"last_report,omitempty"`
	Checks      []preflight.Result     `json:"checks"`
}

// DispatchRequest runs one dispatch cycle now.
type DispatchRequest struct{}

// DispatchResponse carries the cycle report.
type DispatchResponse struct {
	Report scheduler.Report `json:"report"`
}

// SessionCheckRequest verifies the saved login.
type SessionCheckRequest struct{}

// SessionCheckResponse reports the session check outcome. Busy is set when a
// dispatch cycle held the browser profile.
type SessionCheckResponse struct {
	OK      bool   `json:"ok"`
	Busy    bool   `json:"busy"`
	Message string `json:"message"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueAddRequest enqueues a video file.
type QueueAddRequest struct {
	Path        string `json:"path"`
	Caption     string `json:"caption"`
	Copy        bool   `json:"copy"`
	SubmittedBy string `json:"submitted_by"`
}

// QueueAddResponse returns the created entry.
type QueueAddResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRemoveRequest removes specific items by ID.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports number of removed entries.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearPendingRequest removes pending items.
type QueueClearPendingRequest struct{}

// QueueClearPendingResponse reports number of removed entries.
type QueueClearPendingResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRetryRequest retries failed items. Empty list means all failed items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// FromDatabaseHealth converts store diagnostics into the wire form.
func FromDatabaseHealth(health queue.DatabaseHealth) DatabaseHealthResponse {
	return DatabaseHealthResponse{
		DBPath:           health.DBPath,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		SchemaVersion:    health.SchemaVersion,
		TableExists:      health.TableExists,
		MissingColumns:   append([]string(nil), health.MissingColumns...),
		IntegrityCheck:   health.IntegrityCheck,
		TotalItems:       health.TotalItems,
		Error:            health.Error,
	}
}

// DiagnosticsSendRequest forwards the latest attempt's screenshots.
type DiagnosticsSendRequest struct{}

// DiagnosticsSendResponse lists what was found and how much was delivered.
type DiagnosticsSendResponse struct {
	Shots []diagnostics.Shot `json:"shots"`
	Sent  int                `json:"sent"`
	Error string             `json:"error,omitempty"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
