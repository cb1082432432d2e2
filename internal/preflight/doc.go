// Package preflight provides readiness checks for the filesystem paths,
// session artifacts, and notification sink that autopost depends on.
//
// These checks run in two contexts:
//   - The daemon logs RunAll once at startup so a broken setup shows up
//     before the first slot fires.
//   - The CLI "autopost status" command renders the same results next to
//     the scheduler and queue summary.
//
// Checks never block startup. A failed check is reported, not fatal.
package preflight
