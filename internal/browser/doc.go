// Package browser drives the publish surface through a real browser.
//
// Callers work against the Session, Scope, and Element interfaces so the
// upload phases and the element locator never touch the automation engine
// directly. The playwright implementation launches Chromium with a persistent
// profile directory, restores backup cookies when present, and hides the usual
// automation fingerprints. The browsertest package provides an in-memory
// implementation for tests.
package browser
