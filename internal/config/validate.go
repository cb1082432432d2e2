package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if len(c.Schedule.Times) == 0 {
		return errors.New("schedule.times must list at least one HH:MM slot")
	}
	seen := make(map[string]struct{}, len(c.Schedule.Times))
	for _, value := range c.Schedule.Times {
		hour, minute, err := ParseClock(value)
		if err != nil {
			return fmt.Errorf("schedule.times: %w", err)
		}
		key := fmt.Sprintf("%02d:%02d", hour, minute)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("schedule.times: duplicate slot %s", key)
		}
		seen[key] = struct{}{}
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	if c.Schedule.MaxRetry < 0 {
		return errors.New("schedule.max_retry must be >= 0")
	}
	return nil
}

func (c *Config) validatePublish() error {
	parsed, err := url.Parse(c.Publish.UploadURL)
	if err != nil {
		return fmt.Errorf("publish.upload_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("publish.upload_url must be an absolute http(s) URL, got %q", c.Publish.UploadURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("publish.upload_url is missing a host: %q", c.Publish.UploadURL)
	}
	if c.Publish.SubmitMinX < 0 {
		return errors.New("publish.submit_min_x must be >= 0")
	}
	if len(c.Publish.SuccessURLPatterns) == 0 && len(c.Publish.SuccessTexts) == 0 {
		return errors.New("publish needs at least one success_url_patterns or success_texts entry")
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return errors.New("browser.viewport_width and browser.viewport_height must be positive")
	}
	if c.Browser.NavigationTimeout <= 0 {
		return errors.New("browser.navigation_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTiming() error {
	t := c.Timing
	positive := []struct {
		key   string
		value int
	}{
		{"timing.upload_timeout", t.UploadTimeout},
		{"timing.upload_poll", t.UploadPoll},
		{"timing.confirm_timeout", t.ConfirmTimeout},
		{"timing.confirm_poll", t.ConfirmPoll},
	}
	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s must be positive", field.key)
		}
	}
	nonNegative := []struct {
		key   string
		value int
	}{
		{"timing.settle_min_ms", t.SettleMinMS},
		{"timing.settle_max_ms", t.SettleMaxMS},
		{"timing.upload_error_grace", t.UploadErrorGrace},
		{"timing.confirm_grace", t.ConfirmGrace},
		{"timing.type_delay_min_ms", t.TypeDelayMinMS},
		{"timing.type_delay_max_ms", t.TypeDelayMaxMS},
	}
	for _, field := range nonNegative {
		if field.value < 0 {
			return fmt.Errorf("%s must be >= 0", field.key)
		}
	}
	if t.SettleMinMS > t.SettleMaxMS {
		return errors.New("timing.settle_min_ms must not exceed timing.settle_max_ms")
	}
	if t.TypeDelayMinMS > t.TypeDelayMaxMS {
		return errors.New("timing.type_delay_min_ms must not exceed timing.type_delay_max_ms")
	}
	if t.UploadPoll > t.UploadTimeout {
		return errors.New("timing.upload_poll must not exceed timing.upload_timeout")
	}
	if t.ConfirmPoll > t.ConfirmTimeout {
		return errors.New("timing.confirm_poll must not exceed timing.confirm_timeout")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if len(c.Notifications.Recipients) > 0 && c.Notifications.TelegramBotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("notifications.telegram_bot_token is required when recipients are set. Set TELEGRAM_BOT_TOKEN or edit %s", defaultPath)
	}
	if _, err := url.Parse(c.Notifications.APIBaseURL); err != nil {
		return fmt.Errorf("notifications.api_base_url: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

// ParseClock parses an "HH:MM" time-of-day slot.
func ParseClock(value string) (int, int, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time-of-day %q (want HH:MM)", value)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
