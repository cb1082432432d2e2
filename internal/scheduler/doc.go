// Package scheduler fires publish cycles at the configured daily slots.
//
// Each slot is a cron entry evaluated in the configured timezone. A cycle
// takes the oldest pending item, checks its file still exists, hands it to the
// publisher, and records the outcome: posted, retried later, or failed once
// the retry budget is spent. A single-permit semaphore guards the whole
// cycle; a slot that fires while another cycle is running is skipped rather
// than queued, so no item is ever dispatched twice. Manual dispatch from the
// CLI goes through the same lock.
package scheduler
