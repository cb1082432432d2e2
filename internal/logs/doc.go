// Package logs reads the daemon log for `autopost logs`.
//
// Tail prints the last N lines with bounded memory, optionally keeps polling
// for appended lines until the context ends, and can filter lines so an
// operator can follow a single queue item's attempts.
package logs
