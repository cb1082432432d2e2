package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations used by the daemon and CLI.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	VideosDir      string `toml:"videos_dir"`
	LogDir         string `toml:"log_dir"`
	DiagnosticsDir string `toml:"diagnostics_dir"`
	ProfileDir     string `toml:"profile_dir"`
	CookiesPath    string `toml:"cookies_path"`
}

// Schedule contains the daily dispatch slots and retry budget.
type Schedule struct {
	Times    []string `toml:"times"`
	Timezone string   `toml:"timezone"`
	MaxRetry int      `toml:"max_retry"`
}

// Publish contains the publish surface location and the text heuristics used
// to recognise controls and outcomes on it.
type Publish struct {
	UploadURL          string   `toml:"upload_url"`
	DefaultCaption     string   `toml:"default_caption"`
	SubmitLabel        string   `toml:"submit_label"`
	NavLabels          []string `toml:"nav_labels"`
	PreferredLabels    []string `toml:"preferred_labels"`
	SubmitMinX         float64  `toml:"submit_min_x"`
	FailureKeywords    []string `toml:"failure_keywords"`
	SuccessTexts       []string `toml:"success_texts"`
	SuccessURLPatterns []string `toml:"success_url_patterns"`
	LoginURLPatterns   []string `toml:"login_url_patterns"`
	SurfaceURLPatterns []string `toml:"surface_url_patterns"`
}

// Browser contains automation engine launch settings.
type Browser struct {
	Headless          bool   `toml:"headless"`
	UserAgent         string `toml:"user_agent"`
	Locale            string `toml:"locale"`
	TimezoneID        string `toml:"timezone_id"`
	ViewportWidth     int    `toml:"viewport_width"`
	ViewportHeight    int    `toml:"viewport_height"`
	NavigationTimeout int    `toml:"navigation_timeout"`
}

// Timing contains the bounded waits used by the upload phases. Values ending
// in _ms are milliseconds, all others are seconds.
type Timing struct {
	SettleMinMS      int `toml:"settle_min_ms"`
	SettleMaxMS      int `toml:"settle_max_ms"`
	UploadTimeout    int `toml:"upload_timeout"`
	UploadPoll       int `toml:"upload_poll"`
	UploadErrorGrace int `toml:"upload_error_grace"`
	ConfirmTimeout   int `toml:"confirm_timeout"`
	ConfirmPoll      int `toml:"confirm_poll"`
	ConfirmGrace     int `toml:"confirm_grace"`
	TypeDelayMinMS   int `toml:"type_delay_min_ms"`
	TypeDelayMaxMS   int `toml:"type_delay_max_ms"`
}

// Notifications contains Telegram delivery settings for diagnostics and
// dispatch outcomes.
type Notifications struct {
	TelegramBotToken string   `toml:"telegram_bot_token"`
	Recipients       []string `toml:"recipients"`
	APIBaseURL       string   `toml:"api_base_url"`
	RequestTimeout   int      `toml:"request_timeout"`
	Diagnostics      bool     `toml:"diagnostics"`
	Outcomes         bool     `toml:"outcomes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for autopost.
//
// Configuration sections by subsystem:
//   - Paths: queue database, videos, logs, diagnostics, browser profile
//   - Schedule: daily dispatch slots, timezone, retry budget
//   - Publish: upload surface URL and control/outcome heuristics
//   - Browser: automation engine launch options
//   - Timing: phase-local waits and polling intervals
//   - Notifications: Telegram diagnostics and outcome messages
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Schedule      Schedule      `toml:"schedule"`
	Publish       Publish       `toml:"publish"`
	Browser       Browser       `toml:"browser"`
	Timing        Timing        `toml:"timing"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autopost.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// cookie file's parent is created so the external session bootstrap can
// write into it.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.VideosDir,
		c.Paths.LogDir,
		c.Paths.DiagnosticsDir,
		c.Paths.ProfileDir,
	}
	if strings.TrimSpace(c.Paths.CookiesPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CookiesPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite queue database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "autopost.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "autopost.lock")
}

// PIDPath returns where the running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "autopost.pid")
}

// CurrentLogPath returns the link that always points at the newest daemon log.
func (c *Config) CurrentLogPath() string {
	return filepath.Join(c.Paths.LogDir, "autopost.log")
}

// Location returns the schedule timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Seconds converts a seconds-valued setting to a duration.
func Seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

// Millis converts a milliseconds-valued setting to a duration.
func Millis(value int) time.Duration {
	return time.Duration(value) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
