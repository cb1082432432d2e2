package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"autopost/internal/browser"
	"autopost/internal/config"
	"autopost/internal/diagnostics"
	"autopost/internal/locator"
	"autopost/internal/logging"
	"autopost/internal/services"
)

// Reporter captures checkpoint screenshots. Implementations must not fail the
// caller.
type Reporter interface {
	Capture(ctx context.Context, target diagnostics.Target, label, caption string) string
}

// Request describes one publish attempt.
type Request struct {
	ItemID   int64
	FilePath string
	Caption  string
}

// Result is the outcome of one attempt. Diverted marks a soft success where
// confirmation never appeared within the window.
type Result struct {
	Success   bool
	Diverted  bool
	Message   string
	Kind      services.Kind
	Err       error
	Phase     string
	AttemptID string
	Artifacts []string
	Duration  time.Duration
}

// Timings bounds every wait in the phase sequence.
type Timings struct {
	SettleMin        time.Duration
	SettleMax        time.Duration
	UploadTimeout    time.Duration
	UploadPoll       time.Duration
	UploadErrorGrace time.Duration
	ConfirmTimeout   time.Duration
	ConfirmPoll      time.Duration
	ConfirmGrace     time.Duration
	TypeDelayMin     time.Duration
	TypeDelayMax     time.Duration
	ClickTimeout     time.Duration
	PopupPause       time.Duration
}

// TimingsFromConfig converts the [timing] section.
func TimingsFromConfig(cfg *config.Config) Timings {
	t := cfg.Timing
	return Timings{
		SettleMin:        config.Millis(t.SettleMinMS),
		SettleMax:        config.Millis(t.SettleMaxMS),
		UploadTimeout:    config.Seconds(t.UploadTimeout),
		UploadPoll:       config.Seconds(t.UploadPoll),
		UploadErrorGrace: config.Seconds(t.UploadErrorGrace),
		ConfirmTimeout:   config.Seconds(t.ConfirmTimeout),
		ConfirmPoll:      config.Seconds(t.ConfirmPoll),
		ConfirmGrace:     config.Seconds(t.ConfirmGrace),
		TypeDelayMin:     config.Millis(t.TypeDelayMinMS),
		TypeDelayMax:     config.Millis(t.TypeDelayMaxMS),
		ClickTimeout:     5 * time.Second,
		PopupPause:       time.Second,
	}
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithTimings replaces the configured timings.
func WithTimings(t Timings) Option {
	return func(u *Uploader) {
		u.timings = t
	}
}

// WithSeed makes delays and click jitter deterministic.
func WithSeed(seed uint64) Option {
	return func(u *Uploader) {
		u.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Uploader runs publish attempts.
type Uploader struct {
	publish     config.Publish
	cookiesPath string
	timings     Timings
	provider    browser.Provider
	locator     *locator.Locator
	reporter    Reporter
	logger      *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds an uploader. A nil reporter disables screenshots.
func New(cfg *config.Config, provider browser.Provider, reporter Reporter, logger *slog.Logger, opts ...Option) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	u := &Uploader{
		publish:     cfg.Publish,
		cookiesPath: cfg.Paths.CookiesPath,
		timings:     TimingsFromConfig(cfg),
		provider:    provider,
		locator:     locator.New(logger),
		reporter:    reporter,
		logger:      logging.NewComponentLogger(logger, "uploader"),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Publish runs every phase for req and always returns a Result. The browser
// session is closed on every path, including panics.
func (u *Uploader) Publish(ctx context.Context, req Request) (result Result) {
	a := u.newAttempt(ctx, req)
	ctx = a.ctx
	started := time.Now()
	a.logger.Info("publish attempt started", logging.String("file", req.FilePath))

	defer func() {
		if rec := recover(); rec != nil {
			err := services.Wrap(services.ErrInternal, a.phase, "recover", fmt.Sprintf("panic: %v", rec), nil)
			result = a.fail(ctx, err)
		}
		a.teardown()
		result.AttemptID = a.id
		result.Artifacts = a.artifacts
		result.Duration = time.Since(started)
	}()

	if err := a.run(ctx, publishPhases(a)); err != nil {
		// Once the submit click is out the platform finishes on its own, so
		// a shutdown from here on must not leave the item to be posted again.
		if a.posted && services.IsCanceled(err) {
			a.divert("shutdown before confirmation")
			return a.succeed(ctx)
		}
		return a.fail(ctx, err)
	}
	return a.succeed(ctx)
}

// CheckSession opens a session and verifies the publish surface is reachable
// while logged in. On success the session cookies are written to the cookie
// backup file.
func (u *Uploader) CheckSession(ctx context.Context) (err error) {
	a := u.newAttempt(ctx, Request{})
	ctx = a.ctx
	defer func() {
		if rec := recover(); rec != nil {
			err = services.Wrap(services.ErrInternal, a.phase, "recover", fmt.Sprintf("panic: %v", rec), nil)
		}
		a.teardown()
	}()

	if err := a.run(ctx, []phase{
		{PhaseSessionInit, a.openSession, ""},
		{PhaseLoginVerify, a.verifyLogin, diagnostics.LabelLoginCheck},
	}); err != nil {
		a.capture(ctx, diagnostics.LabelError, "session check: "+err.Error())
		return err
	}

	cookies, cerr := a.session.Cookies()
	if cerr != nil {
		logging.WarnWithContext(a.logger, "session cookies unavailable", "session_check",
			logging.Error(cerr),
			logging.String(logging.FieldImpact, "cookie backup not refreshed"),
		)
		return nil
	}
	if werr := browser.SaveCookies(u.cookiesPath, cookies); werr != nil {
		logging.WarnWithContext(a.logger, "cookie backup write failed", "session_check",
			logging.String("path", u.cookiesPath),
			logging.Error(werr),
			logging.String(logging.FieldImpact, "cookie backup not refreshed"),
		)
		return nil
	}
	a.logger.Info("session verified", logging.Int("cookies", len(cookies)), logging.String("backup", u.cookiesPath))
	return nil
}

func (u *Uploader) newAttempt(ctx context.Context, req Request) *attempt {
	id := uuid.NewString()
	ctx = services.WithAttemptID(ctx, id)
	if req.ItemID > 0 {
		ctx = services.WithItemID(ctx, req.ItemID)
	}
	return &attempt{
		u:      u,
		ctx:    ctx,
		req:    req,
		id:     id,
		logger: logging.WithContext(ctx, u.logger),
	}
}

// between returns a uniform duration in [lo, hi].
func (u *Uploader) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	u.rngMu.Lock()
	defer u.rngMu.Unlock()
	return lo + time.Duration(u.rng.Int64N(int64(hi-lo)+1))
}

func (u *Uploader) jitter(limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	u.rngMu.Lock()
	defer u.rngMu.Unlock()
	return (u.rng.Float64()*2 - 1) * limit
}

func (u *Uploader) settle(ctx context.Context) error {
	return sleepContext(ctx, u.between(u.timings.SettleMin, u.timings.SettleMax))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopReporter struct{}

func (nopReporter) Capture(context.Context, diagnostics.Target, string, string) string { return "" }
