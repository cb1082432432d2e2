// Package notifications delivers dispatch outcomes and diagnostic screenshots
// through the Telegram Bot API.
//
// NewService returns a Telegram-backed implementation when a bot token and at
// least one recipient are configured, and a no-op otherwise. Every message is
// sent to each recipient independently; one failed recipient does not stop
// delivery to the rest, and the combined error is returned. Callers treat
// notification errors as warnings.
package notifications
