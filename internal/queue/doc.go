// Package queue persists publish work items in SQLite and exposes the FIFO
// operations the dispatch scheduler drives.
//
// Items are created pending by the intake path (`autopost add`), read oldest
// first with NextPending, and finish as posted or failed. Posted and failed
// are terminal; only the operator reset RetryFailed moves an item back to
// pending. Every mutation is a single statement and stamps updated_at, and
// transient SQLITE_BUSY errors are retried with backoff.
//
// Schema changes bump the version in schema.go; users reset the database to
// adopt the new schema.
package queue
