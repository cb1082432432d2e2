// Package daemon coordinates the long-running autopost process.
//
// It wires configuration, queue storage, the dispatch scheduler, and the
// notification service into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon exposes queue maintenance helpers,
// handles manual file intake, runs operator session checks under the dispatch
// lock, and reports status for the CLI.
//
// Keep orchestration logic here: publishing lives in the uploader and the
// retry policy in the scheduler, while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
