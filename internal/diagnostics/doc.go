// Package diagnostics captures screenshots at upload checkpoints and forwards
// them to notification recipients.
//
// Capture never fails the caller: write errors, forwarding errors, and panics
// inside the screenshot target are logged and swallowed so a diagnostics
// problem cannot change the outcome of the phase that requested it.
package diagnostics
