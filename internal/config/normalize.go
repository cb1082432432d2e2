package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSchedule()
	c.normalizePublish()
	c.normalizeBrowser()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.videos_dir", &c.Paths.VideosDir, defaultVideosDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.diagnostics_dir", &c.Paths.DiagnosticsDir, defaultDiagnosticsDir},
		{"paths.profile_dir", &c.Paths.ProfileDir, defaultProfileDir},
		{"paths.cookies_path", &c.Paths.CookiesPath, defaultCookiesPath},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Times = trimList(c.Schedule.Times)
	if len(c.Schedule.Times) == 0 {
		c.Schedule.Times = cloneStrings(defaultScheduleTimes)
	}
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
}

func (c *Config) normalizePublish() {
	c.Publish.UploadURL = strings.TrimSpace(c.Publish.UploadURL)
	if c.Publish.UploadURL == "" {
		c.Publish.UploadURL = defaultUploadURL
	}
	c.Publish.DefaultCaption = strings.TrimSpace(c.Publish.DefaultCaption)
	c.Publish.SubmitLabel = strings.ToLower(strings.TrimSpace(c.Publish.SubmitLabel))
	if c.Publish.SubmitLabel == "" {
		c.Publish.SubmitLabel = defaultSubmitLabel
	}
	c.Publish.NavLabels = lowerList(c.Publish.NavLabels)
	c.Publish.PreferredLabels = lowerList(c.Publish.PreferredLabels)
	c.Publish.FailureKeywords = lowerList(c.Publish.FailureKeywords)
	c.Publish.SuccessTexts = trimList(c.Publish.SuccessTexts)
	c.Publish.SuccessURLPatterns = trimList(c.Publish.SuccessURLPatterns)
	c.Publish.LoginURLPatterns = trimList(c.Publish.LoginURLPatterns)
	c.Publish.SurfaceURLPatterns = trimList(c.Publish.SurfaceURLPatterns)
}

func (c *Config) normalizeBrowser() {
	c.Browser.UserAgent = strings.TrimSpace(c.Browser.UserAgent)
	c.Browser.Locale = strings.TrimSpace(c.Browser.Locale)
	c.Browser.TimezoneID = strings.TrimSpace(c.Browser.TimezoneID)
	if c.Browser.TimezoneID == "" {
		c.Browser.TimezoneID = c.Schedule.Timezone
	}
}

func (c *Config) normalizeNotifications() {
	if strings.TrimSpace(c.Notifications.TelegramBotToken) == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Notifications.TelegramBotToken = value
		}
	}
	c.Notifications.TelegramBotToken = strings.TrimSpace(c.Notifications.TelegramBotToken)
	if len(c.Notifications.Recipients) == 0 {
		if value, ok := os.LookupEnv("TELEGRAM_RECIPIENTS"); ok {
			c.Notifications.Recipients = strings.Split(value, ",")
		}
	}
	c.Notifications.Recipients = trimList(c.Notifications.Recipients)
	c.Notifications.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Notifications.APIBaseURL), "/")
	if c.Notifications.APIBaseURL == "" {
		c.Notifications.APIBaseURL = defaultTelegramAPIBaseURL
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func lowerList(values []string) []string {
	out := trimList(values)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}
