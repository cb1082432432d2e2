// Package logging assembles structured slog loggers and formatting helpers used
// across autopost.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatch and upload code can
// tag log lines with queue item IDs, upload phases, and attempt IDs. The
// package also provides a no-op logger for tests and the retention sweep that
// prunes old daemon logs and diagnostic screenshots.
package logging
