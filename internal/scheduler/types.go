package scheduler

import (
	"context"
	"time"

	"autopost/internal/queue"
	"autopost/internal/uploader"
)

// Publisher performs one publish attempt.
type Publisher interface {
	Publish(ctx context.Context, req uploader.Request) uploader.Result
}

// Outcome classifies a dispatch cycle.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"
	OutcomeIdle        Outcome = "idle"
	OutcomeFileMissing Outcome = "file_missing"
	OutcomePosted      Outcome = "posted"
	OutcomeRetrying    Outcome = "retrying"
	OutcomeFailed      Outcome = "failed"
	// OutcomeInterrupted means shutdown canceled the attempt. The item stays
	// pending and its retry budget is untouched.
	OutcomeInterrupted Outcome = "interrupted"
)

// Report describes one dispatch cycle.
type Report struct {
	Outcome  Outcome   `json:"outcome"`
	ItemID   int64     `json:"item_id,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Message  string    `json:"message,omitempty"`
	Retry    int       `json:"retry,omitempty"`
	Diverted bool      `json:"diverted,omitempty"`
	Finished time.Time `json:"finished"`
}

// Slot is one daily trigger time.
type Slot struct {
	Label  string
	Hour   int
	Minute int
}

// SlotStatus pairs a slot with its next fire time.
type SlotStatus struct {
	Slot string    `json:"slot"`
	Next time.Time `json:"next"`
}

// Status summarises scheduler state.
type Status struct {
	Running    bool                 `json:"running"`
	Busy       bool                 `json:"busy"`
	Timezone   string               `json:"timezone"`
	MaxRetry   int                  `json:"max_retry"`
	Slots      []SlotStatus         `json:"slots"`
	QueueStats map[queue.Status]int `json:"queue_stats"`
	LastReport *Report              `json:"last_report,omitempty"`
}
