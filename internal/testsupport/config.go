package testsupport

import (
	"path/filepath"
	"testing"

	"autopost/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Timings are shrunk so upload phases finish in milliseconds.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DataDir:        filepath.Join(base, "data"),
		VideosDir:      filepath.Join(base, "videos"),
		LogDir:         filepath.Join(base, "logs"),
		DiagnosticsDir: filepath.Join(base, "diagnostics"),
		ProfileDir:     filepath.Join(base, "profile"),
		CookiesPath:    filepath.Join(base, "cookies", "session_cookies.json"),
	}
	cfgVal.Schedule.Timezone = "UTC"
	cfgVal.Timing = config.Timing{
		SettleMinMS:      0,
		SettleMaxMS:      0,
		UploadTimeout:    1,
		UploadPoll:       1,
		UploadErrorGrace: 0,
		ConfirmTimeout:   1,
		ConfirmPoll:      1,
		ConfirmGrace:     0,
		TypeDelayMinMS:   0,
		TypeDelayMaxMS:   0,
	}
	cfgVal.Notifications.TelegramBotToken = ""
	cfgVal.Notifications.Recipients = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMaxRetry overrides the retry budget on the test config.
func WithMaxRetry(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Schedule.MaxRetry = n
	}
}

// WithTelegram points notifications at a fake Bot API server.
func WithTelegram(baseURL, token string, recipients ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.APIBaseURL = baseURL
		b.cfg.Notifications.TelegramBotToken = token
		b.cfg.Notifications.Recipients = recipients
		b.cfg.Notifications.RequestTimeout = 5
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
