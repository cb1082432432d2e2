package browser

import (
	"context"
	"time"
)

// Box is an element's on-screen bounding rectangle in CSS pixels.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// ClickOptions tunes element clicks.
type ClickOptions struct {
	// Force skips actionability checks such as overlapping elements.
	Force   bool
	Timeout time.Duration
}

// Provider opens browser sessions. Each publish attempt owns exactly one
// session and closes it before returning.
type Provider interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one page in a live browser context.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	URL() string
	// Scopes returns the main document followed by every embedded frame.
	Scopes() []Scope
	PressKey(key string) error
	TypeText(text string, delay time.Duration) error
	MouseClick(x, y float64) error
	Screenshot(path string) error
	BodyText() (string, error)
	Cookies() ([]Cookie, error)
	Close() error
}

// Scope is a document that can be searched for elements.
type Scope interface {
	Name() string
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle on one attached element.
type Element interface {
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	Text() (string, error)
	// BoundingBox returns nil when the element is not rendered.
	BoundingBox() (*Box, error)
	SetInputFiles(path string) error
	Click(opts ClickOptions) error
	// ScriptClick invokes the element's click() from page script.
	ScriptClick() error
	// DispatchClick fires a synthetic click event on the element.
	DispatchClick() error
	ScrollIntoView() error
}
