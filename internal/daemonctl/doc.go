// Package daemonctl launches, stops, and inspects the background autopost
// daemon on behalf of the CLI.
//
// Start re-executes the binary as `autopost run` in its own session and waits
// for the control socket. Stop halts the scheduler over IPC, then signals the
// process and falls back to SIGKILL when it does not exit. BuildStatusSnapshot
// answers `autopost status` even when no daemon is running.
package daemonctl
