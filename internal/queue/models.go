package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

// FileMissingPrefix starts the error message stored when an item's source
// file is gone at dispatch time.
const FileMissingPrefix = "file missing"

var allStatuses = []Status{StatusPending, StatusPosted, StatusFailed}

// AllStatuses returns every lifecycle status in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (want pending, posted, or failed)", value)
}

// IsTerminal reports whether the status never changes without an operator reset.
func (s Status) IsTerminal() bool {
	return s == StatusPosted || s == StatusFailed
}

// Item is one media file waiting to be, or already, published.
type Item struct {
	ID           int64
	Filename     string
	FilePath     string
	Caption      string
	Status       Status
	RetryCount   int
	ErrorMessage string
	SubmittedBy  string
	CreatedAt    time.Time
	PostedAt     *time.Time
	UpdatedAt    time.Time
}

// CaptionOr returns the item's caption, or fallback when none was recorded.
func (i *Item) CaptionOr(fallback string) string {
	if i == nil || strings.TrimSpace(i.Caption) == "" {
		return fallback
	}
	return i.Caption
}

// DatabaseHealth describes the queue database for `autopost queue health`.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
