package config

const (
	defaultConfigPath         = "~/.config/autopost/config.toml"
	defaultDataDir            = "~/.local/share/autopost"
	defaultVideosDir          = "~/.local/share/autopost/videos"
	defaultLogDir             = "~/.local/share/autopost/logs"
	defaultDiagnosticsDir     = "~/.local/share/autopost/diagnostics"
	defaultProfileDir         = "~/.local/share/autopost/browser_profile"
	defaultCookiesPath        = "~/.local/share/autopost/cookies/session_cookies.json"
	defaultTimezone           = "Asia/Jakarta"
	defaultMaxRetry           = 1
	defaultUploadURL          = "https://www.tiktok.com/upload"
	defaultCaption            = "#fyp #viral #foryou"
	defaultSubmitLabel        = "post"
	defaultSubmitMinX         = 400
	defaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultLocale             = "id-ID"
	defaultViewportWidth      = 1280
	defaultViewportHeight     = 720
	defaultNavigationTimeout  = 60
	defaultSettleMinMS        = 7000
	defaultSettleMaxMS        = 10000
	defaultUploadTimeout      = 180
	defaultUploadPoll         = 2
	defaultUploadErrorGrace   = 15
	defaultConfirmTimeout     = 120
	defaultConfirmPoll        = 3
	defaultConfirmGrace       = 20
	defaultTypeDelayMinMS     = 20
	defaultTypeDelayMaxMS     = 50
	defaultTelegramAPIBaseURL = "https://api.telegram.org"
	defaultRequestTimeout     = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

var (
	defaultScheduleTimes      = []string{"06:00", "09:00", "12:00"}
	defaultNavLabels          = []string{"postingan"}
	defaultPreferredLabels    = []string{"posting"}
	defaultFailureKeywords    = []string{"failed", "error", "gagal", "tidak dapat"}
	defaultSuccessURLPatterns = []string{"manage", "profile", "/@", "/content"}
	defaultLoginURLPatterns   = []string{"login"}
	defaultSurfaceURLPatterns = []string{"upload", "studio", "creator"}
	defaultSuccessTexts       = []string{
		"Your video is being uploaded",
		"Video posted",
		"successfully",
		"Video sedang diproses",
		"Berhasil diposting",
		"Posted to TikTok",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			VideosDir:      defaultVideosDir,
			LogDir:         defaultLogDir,
			DiagnosticsDir: defaultDiagnosticsDir,
			ProfileDir:     defaultProfileDir,
			CookiesPath:    defaultCookiesPath,
		},
		Schedule: Schedule{
			Times:    cloneStrings(defaultScheduleTimes),
			Timezone: defaultTimezone,
			MaxRetry: defaultMaxRetry,
		},
		Publish: Publish{
			UploadURL:          defaultUploadURL,
			DefaultCaption:     defaultCaption,
			SubmitLabel:        defaultSubmitLabel,
			NavLabels:          cloneStrings(defaultNavLabels),
			PreferredLabels:    cloneStrings(defaultPreferredLabels),
			SubmitMinX:         defaultSubmitMinX,
			FailureKeywords:    cloneStrings(defaultFailureKeywords),
			SuccessTexts:       cloneStrings(defaultSuccessTexts),
			SuccessURLPatterns: cloneStrings(defaultSuccessURLPatterns),
			LoginURLPatterns:   cloneStrings(defaultLoginURLPatterns),
			SurfaceURLPatterns: cloneStrings(defaultSurfaceURLPatterns),
		},
		Browser: Browser{
			Headless:          true,
			UserAgent:         defaultUserAgent,
			Locale:            defaultLocale,
			TimezoneID:        defaultTimezone,
			ViewportWidth:     defaultViewportWidth,
			ViewportHeight:    defaultViewportHeight,
			NavigationTimeout: defaultNavigationTimeout,
		},
		Timing: Timing{
			SettleMinMS:      defaultSettleMinMS,
			SettleMaxMS:      defaultSettleMaxMS,
			UploadTimeout:    defaultUploadTimeout,
			UploadPoll:       defaultUploadPoll,
			UploadErrorGrace: defaultUploadErrorGrace,
			ConfirmTimeout:   defaultConfirmTimeout,
			ConfirmPoll:      defaultConfirmPoll,
			ConfirmGrace:     defaultConfirmGrace,
			TypeDelayMinMS:   defaultTypeDelayMinMS,
			TypeDelayMaxMS:   defaultTypeDelayMaxMS,
		},
		Notifications: Notifications{
			APIBaseURL:     defaultTelegramAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
			Diagnostics:    true,
			Outcomes:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
