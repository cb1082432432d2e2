// Package locator resolves logical page controls to live elements.
//
// A Control is an ordered list of strategies. Find walks the strategies in
// order and, within each strategy, every scope the session exposes (main
// document first, then embedded frames), returning the first attached match.
// Query errors in one scope never abort the search. Visibility and text
// filtering belong to callers; FindVisible is the common case.
package locator
