// Package browsertest provides an in-memory browser for exercising the
// locator and the upload phases without launching Chromium.
package browsertest

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"autopost/internal/browser"
)

// pngHeader is enough of a PNG for tests that only check a file was written.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Provider hands out a prepared page.
type Provider struct {
	mu     sync.Mutex
	page   *Page
	err    error
	opened int
}

// NewProvider returns a provider whose sessions all resolve to page.
func NewProvider(page *Page) *Provider {
	return &Provider{page: page}
}

// FailWith makes subsequent Open calls return err.
func (p *Provider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Opened reports how many sessions were opened.
func (p *Provider) Opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

func (p *Provider) Open(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.opened++
	p.page.mu.Lock()
	p.page.closed = false
	p.page.mu.Unlock()
	return p.page, nil
}

// Point is a recorded mouse click.
type Point struct {
	X, Y float64
}

// Page is a scripted browser page. Hooks run without the page lock held so
// they may mutate the page.
type Page struct {
	mu      sync.Mutex
	url     string
	body    string
	frames  []*Frame
	closed  bool
	cookies []browser.Cookie

	pressed []string
	typed   strings.Builder
	clicks  []Point
	shots   []string

	// OnNavigate runs after the URL changes on Navigate.
	OnNavigate func(p *Page, url string)
	// OnReload runs after Reload.
	OnReload func(p *Page)
	// OnPoll runs every time the page URL is read, letting tests advance
	// state across polling iterations.
	OnPoll func(p *Page)

	NavigateErr   error
	ScreenshotErr error
	MouseErr      error
	TypeErr       error
}

// NewPage returns a page with an empty main frame.
func NewPage() *Page {
	return &Page{frames: []*Frame{newFrame("main")}}
}

// Main returns the main document frame.
func (p *Page) Main() *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames[0]
}

// AddFrame appends an embedded frame.
func (p *Page) AddFrame(name string) *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	frame := newFrame(name)
	p.frames = append(p.frames, frame)
	return frame
}

// SetURL changes the current location.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// SetBody replaces the visible body text.
func (p *Page) SetBody(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.body = text
}

// SetCookies replaces the cookie jar.
func (p *Page) SetCookies(cookies []browser.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = append([]browser.Cookie(nil), cookies...)
}

// Closed reports whether the session was closed.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Typed returns all text typed so far.
func (p *Page) Typed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed.String()
}

// Pressed returns the keys pressed so far.
func (p *Page) Pressed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pressed...)
}

// MouseClicks returns the recorded pointer clicks.
func (p *Page) MouseClicks() []Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Point(nil), p.clicks...)
}

// Screenshots returns the paths written by Screenshot.
func (p *Page) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.shots...)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.NavigateErr != nil {
		err := p.NavigateErr
		p.mu.Unlock()
		return err
	}
	p.url = url
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	hook := p.OnReload
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	hook := p.OnPoll
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Scopes() []browser.Scope {
	p.mu.Lock()
	defer p.mu.Unlock()
	scopes := make([]browser.Scope, 0, len(p.frames))
	for _, frame := range p.frames {
		scopes = append(scopes, frame)
	}
	return scopes
}

func (p *Page) PressKey(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pressed = append(p.pressed, key)
	return nil
}

func (p *Page) TypeText(text string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TypeErr != nil {
		return p.TypeErr
	}
	p.typed.WriteString(text)
	return nil
}

// MouseClick records the click and activates the topmost visible element
// whose box contains the point.
func (p *Page) MouseClick(x, y float64) error {
	p.mu.Lock()
	if p.MouseErr != nil {
		err := p.MouseErr
		p.mu.Unlock()
		return err
	}
	p.clicks = append(p.clicks, Point{X: x, Y: y})
	frames := append([]*Frame(nil), p.frames...)
	p.mu.Unlock()

	for _, frame := range frames {
		if el := frame.elementAt(x, y); el != nil {
			el.activate("pointer")
			return nil
		}
	}
	return nil
}

func (p *Page) Screenshot(path string) error {
	p.mu.Lock()
	if p.ScreenshotErr != nil {
		err := p.ScreenshotErr
		p.mu.Unlock()
		return err
	}
	p.shots = append(p.shots, path)
	p.mu.Unlock()
	return os.WriteFile(path, pngHeader, 0o644)
}

func (p *Page) BodyText() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body, nil
}

func (p *Page) Cookies() ([]browser.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Cookie(nil), p.cookies...), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("session already closed")
	}
	p.closed = true
	return nil
}

// Frame is a document holding elements keyed by the exact selector string
// that should find them.
type Frame struct {
	mu       sync.Mutex
	name     string
	order    []string
	elements map[string][]*Element
	QueryErr error
}

func newFrame(name string) *Frame {
	return &Frame{name: name, elements: make(map[string][]*Element)}
}

// Add attaches elements under selector.
func (f *Frame) Add(selector string, elements ...*Element) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.elements[selector]; !ok {
		f.order = append(f.order, selector)
	}
	f.elements[selector] = append(f.elements[selector], elements...)
	return f
}

// Remove detaches every element under selector.
func (f *Frame) Remove(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.elements, selector)
}

func (f *Frame) Name() string { return f.name }

func (f *Frame) QueryAll(selector string) ([]browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	found := f.elements[selector]
	out := make([]browser.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out, nil
}

func (f *Frame) elementAt(x, y float64) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.order) - 1; i >= 0; i-- {
		for _, el := range f.elements[f.order[i]] {
			if el.contains(x, y) {
				return el
			}
		}
	}
	return nil
}

// Element is a scripted element. The zero value is attached but hidden.
type Element struct {
	mu sync.Mutex

	Visible  bool
	Disabled bool
	Label    string
	Box      *browser.Box

	ClickErr      error
	ForceClickErr error
	ScriptErr     error
	DispatchErr   error
	SetFilesErr   error

	// OnClick runs after any successful activation.
	OnClick func()
	// OnSetFiles runs after files are attached.
	OnSetFiles func(path string)

	files  []string
	clicks []string
}

// NewElement returns a visible, enabled element with the given text.
func NewElement(label string) *Element {
	return &Element{Visible: true, Label: label}
}

// WithBox sets the element's bounding box.
func (e *Element) WithBox(x, y, w, h float64) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Box = &browser.Box{X: x, Y: y, Width: w, Height: h}
	return e
}

// SetState updates visibility and disabled flags.
func (e *Element) SetState(visible, disabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Visible = visible
	e.Disabled = disabled
}

// Files returns the paths attached through SetInputFiles.
func (e *Element) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.files...)
}

// Clicks returns the activation methods used, in order.
func (e *Element) Clicks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.clicks...)
}

func (e *Element) IsVisible() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Visible, nil
}

func (e *Element) IsEnabled() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Disabled, nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Label, nil
}

func (e *Element) BoundingBox() (*browser.Box, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Box == nil || !e.Visible {
		return nil, nil
	}
	box := *e.Box
	return &box, nil
}

func (e *Element) SetInputFiles(path string) error {
	e.mu.Lock()
	if e.SetFilesErr != nil {
		err := e.SetFilesErr
		e.mu.Unlock()
		return err
	}
	e.files = append(e.files, path)
	hook := e.OnSetFiles
	e.mu.Unlock()
	if hook != nil {
		hook(path)
	}
	return nil
}

func (e *Element) Click(opts browser.ClickOptions) error {
	e.mu.Lock()
	err := e.ClickErr
	method := "click"
	if opts.Force {
		err = e.ForceClickErr
		method = "force"
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.activate(method)
	return nil
}

func (e *Element) ScriptClick() error {
	e.mu.Lock()
	err := e.ScriptErr
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.activate("script")
	return nil
}

func (e *Element) DispatchClick() error {
	e.mu.Lock()
	err := e.DispatchErr
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.activate("dispatch")
	return nil
}

func (e *Element) ScrollIntoView() error {
	return nil
}

func (e *Element) activate(method string) {
	e.mu.Lock()
	e.clicks = append(e.clicks, method)
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (e *Element) contains(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.Visible || e.Box == nil {
		return false
	}
	b := e.Box
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}
