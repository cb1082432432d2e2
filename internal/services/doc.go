// Package services defines the failure taxonomy and context helpers shared by
// the scheduler, the uploader, and their supporting packages.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, upload phases, and attempt
//     IDs for logging.
//   - Structured error markers plus the Wrap helper; KindOf turns a wrapped
//     error back into a short kind for logs, notifications, and results.
//
// Phases return wrapped markers instead of logging and continuing, so the
// single recover boundary in the uploader stays the only catch-all.
package services
