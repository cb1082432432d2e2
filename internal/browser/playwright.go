package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"autopost/internal/config"
	"autopost/internal/logging"
)

// shortTimeout bounds element lookups so a stale handle cannot stall a poll.
const shortTimeout = 2 * time.Second

// Options controls how the playwright provider launches Chromium.
type Options struct {
	ProfileDir        string
	CookiesPath       string
	Headless          bool
	UserAgent         string
	Locale            string
	TimezoneID        string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

// OptionsFromConfig derives launch options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ProfileDir:        cfg.Paths.ProfileDir,
		CookiesPath:       cfg.Paths.CookiesPath,
		Headless:          cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		Locale:            cfg.Browser.Locale,
		TimezoneID:        cfg.Browser.TimezoneID,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		NavigationTimeout: config.Seconds(cfg.Browser.NavigationTimeout),
	}
}

// PlaywrightProvider opens sessions backed by playwright-driven Chromium.
type PlaywrightProvider struct {
	opts   Options
	logger *slog.Logger
}

// NewPlaywrightProvider builds a provider for the given launch options.
func NewPlaywrightProvider(opts Options, logger *slog.Logger) *PlaywrightProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PlaywrightProvider{opts: opts, logger: logging.NewComponentLogger(logger, "browser")}
}

// Install downloads the Chromium build the driver expects.
func Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

// Open launches Chromium on the persistent profile and returns its first page.
func (p *PlaywrightProvider) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.opts.ProfileDir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(p.opts.Headless),
		Args:     automationArgs,
	}
	if p.opts.ViewportWidth > 0 && p.opts.ViewportHeight > 0 {
		launch.Viewport = &playwright.Size{Width: p.opts.ViewportWidth, Height: p.opts.ViewportHeight}
	}
	if p.opts.UserAgent != "" {
		launch.UserAgent = playwright.String(p.opts.UserAgent)
	}
	if p.opts.Locale != "" {
		launch.Locale = playwright.String(p.opts.Locale)
	}
	if p.opts.TimezoneID != "" {
		launch.TimezoneId = playwright.String(p.opts.TimezoneID)
	}

	bctx, err := pw.Chromium.LaunchPersistentContext(p.opts.ProfileDir, launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	cleanup := func() {
		_ = bctx.Close()
		_ = pw.Stop()
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		cleanup()
		return nil, fmt.Errorf("install init script: %w", err)
	}
	p.restoreCookies(bctx)

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = bctx.NewPage()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("open page: %w", err)
		}
	}
	if p.opts.NavigationTimeout > 0 {
		page.SetDefaultNavigationTimeout(millis(p.opts.NavigationTimeout))
	}
	page.SetDefaultTimeout(millis(30 * time.Second))

	return &pwSession{
		pw:         pw,
		bctx:       bctx,
		page:       page,
		navTimeout: p.opts.NavigationTimeout,
	}, nil
}

// restoreCookies loads the backup cookie file. The persistent profile is the
// primary session store, so failures here only warn.
func (p *PlaywrightProvider) restoreCookies(bctx playwright.BrowserContext) {
	cookies, err := LoadCookies(p.opts.CookiesPath)
	if err != nil {
		logging.WarnWithContext(p.logger, "cookie backup unreadable", "browser_cookies",
			logging.String("path", p.opts.CookiesPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run autopost session check after logging in to refresh the backup"),
			logging.String(logging.FieldImpact, "relying on the browser profile alone"),
		)
		return
	}
	if len(cookies) == 0 {
		return
	}
	if err := bctx.AddCookies(toOptionalCookies(cookies)); err != nil {
		logging.WarnWithContext(p.logger, "cookie backup rejected", "browser_cookies",
			logging.String("path", p.opts.CookiesPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "relying on the browser profile alone"),
		)
		return
	}
	p.logger.Debug("cookie backup restored", logging.Int("count", len(cookies)))
}

type pwSession struct {
	pw         *playwright.Playwright
	bctx       playwright.BrowserContext
	page       playwright.Page
	navTimeout time.Duration
}

func (s *pwSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}
	if s.navTimeout > 0 {
		opts.Timeout = playwright.Float(millis(s.navTimeout))
	}
	if _, err := s.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *pwSession) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}
	if s.navTimeout > 0 {
		opts.Timeout = playwright.Float(millis(s.navTimeout))
	}
	if _, err := s.page.Reload(opts); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (s *pwSession) URL() string {
	return s.page.URL()
}

func (s *pwSession) Scopes() []Scope {
	main := s.page.MainFrame()
	scopes := []Scope{pwScope{name: "main", frame: main}}
	for i, frame := range s.page.Frames() {
		if frame == main {
			continue
		}
		name := frame.Name()
		if name == "" {
			name = fmt.Sprintf("frame-%d", i)
		}
		scopes = append(scopes, pwScope{name: name, frame: frame})
	}
	return scopes
}

func (s *pwSession) PressKey(key string) error {
	return s.page.Keyboard().Press(key)
}

func (s *pwSession) TypeText(text string, delay time.Duration) error {
	return s.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{Delay: playwright.Float(millis(delay))})
}

func (s *pwSession) MouseClick(x, y float64) error {
	return s.page.Mouse().Click(x, y)
}

func (s *pwSession) Screenshot(path string) error {
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(false),
	})
	return err
}

func (s *pwSession) BodyText() (string, error) {
	return s.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(millis(shortTimeout)),
	})
}

func (s *pwSession) Cookies() ([]Cookie, error) {
	raw, err := s.bctx.Cookies()
	if err != nil {
		return nil, err
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (s *pwSession) Close() error {
	var errs []error
	if err := s.bctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

type pwScope struct {
	name  string
	frame playwright.Frame
}

func (s pwScope) Name() string { return s.name }

func (s pwScope) QueryAll(selector string) ([]Element, error) {
	locators, err := s.frame.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, pwElement{loc: loc})
	}
	return elements, nil
}

type pwElement struct {
	loc playwright.Locator
}

func (e pwElement) IsVisible() (bool, error) {
	return e.loc.IsVisible()
}

func (e pwElement) IsEnabled() (bool, error) {
	return e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: playwright.Float(millis(shortTimeout))})
}

func (e pwElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(millis(shortTimeout))})
}

func (e pwElement) BoundingBox() (*Box, error) {
	rect, err := e.loc.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: playwright.Float(millis(shortTimeout))})
	if err != nil || rect == nil {
		return nil, err
	}
	return &Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

func (e pwElement) SetInputFiles(path string) error {
	return e.loc.SetInputFiles(path)
}

func (e pwElement) Click(opts ClickOptions) error {
	click := playwright.LocatorClickOptions{}
	if opts.Force {
		click.Force = playwright.Bool(true)
	}
	if opts.Timeout > 0 {
		click.Timeout = playwright.Float(millis(opts.Timeout))
	}
	return e.loc.Click(click)
}

func (e pwElement) ScriptClick() error {
	_, err := e.loc.Evaluate("el => el.click()", nil)
	return err
}

func (e pwElement) DispatchClick() error {
	return e.loc.DispatchEvent("click", nil)
}

func (e pwElement) ScrollIntoView() error {
	return e.loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(millis(shortTimeout)),
	})
}

func toOptionalCookies(cookies []Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			oc.SameSite = playwright.SameSiteAttributeStrict
		case "lax":
			oc.SameSite = playwright.SameSiteAttributeLax
		case "none":
			oc.SameSite = playwright.SameSiteAttributeNone
		}
		out = append(out, oc)
	}
	return out
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
