// Package main hosts the autopost CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the daemon when it is running. Queue maintenance, intake, manual
// dispatch, and session checks fall back to working on the queue database
// directly when it is not; dispatch and session checks then take the daemon
// lock first so they never race a daemon that starts meanwhile.
//
// Add new behavior to the internal packages first and surface it here.
package main
