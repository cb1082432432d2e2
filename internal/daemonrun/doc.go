// Package daemonrun assembles the autopost runtime: per-run log files, the
// browser provider, diagnostics, uploader, scheduler, daemon, and IPC server.
//
// Run is the foreground daemon entrypoint used by `autopost run`. Assemble
// builds the same daemon without starting it so CLI commands can dispatch
// in-process when no daemon is listening.
package daemonrun
