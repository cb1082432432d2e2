// Package uploader publishes one queued video through the browser.
//
// Publish runs a fixed sequence of phases against a fresh browser session:
// session init, login verification, file selection, upload wait, popup
// dismissal, caption entry, submit review, post click, and confirmation.
// Every phase is bounded and checks its context between waits. Phases return
// errors tagged with services markers; Publish is the only recover boundary
// and always converts the attempt into a Result and closes the session.
//
// The page is matched through the ordered selector catalog in selectors.go,
// so surface changes are usually a one-line edit there. Text heuristics such
// as the submit label and failure keywords come from the [publish] config
// section.
package uploader
