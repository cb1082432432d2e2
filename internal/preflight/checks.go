package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"
	"golang.org/x/sys/unix"

	"autopost/internal/browser"
	"autopost/internal/config"
)

// CookieMaxAge is the age after which the saved session cookies are likely
// stale and should be refreshed by logging in again.
const CookieMaxAge = 14 * 24 * time.Hour

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCookies reports whether the cookie backup exists and how old it is.
// A missing file is not fatal because the persistent profile usually still
// holds the session, but it is flagged as a warning.
func CheckCookies(path string, now time.Time) Result {
	const name = "Session cookies"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Passed: true, Warning: true, Detail: "cookie backup disabled"}
	}
	age, ok := browser.CookieFileAge(path, now)
	if !ok {
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%s not found; run `autopost session check` after logging in", path)}
	}
	days := int(age / (24 * time.Hour))
	if age > CookieMaxAge {
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%d days old; refresh the login session", days)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d days old", days)}
}

// CheckVideoStorage summarises the files held in the videos directory.
func CheckVideoStorage(dir string) Result {
	const name = "Video storage"

	usage, err := ScanStorage(dir)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d files, %.2f MB", usage.Files, usage.MegaBytes())}
}

// Storage describes the regular files directly under a directory.
type Storage struct {
	Dir   string
	Files int
	Bytes int64
}

// MegaBytes returns Bytes in MiB.
func (s Storage) MegaBytes() float64 {
	return float64(s.Bytes) / (1024 * 1024)
}

// ScanStorage counts regular files in dir without descending into subdirectories.
func ScanStorage(dir string) (Storage, error) {
	usage := Storage{Dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return usage, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		usage.Files++
		usage.Bytes += info.Size()
	}
	return usage, nil
}

// CheckTelegram verifies the bot token with getMe. Missing configuration is
// reported as a warning since notifications are optional.
func CheckTelegram(ctx context.Context, cfg *config.Config) Result {
	const name = "Telegram"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	token := strings.TrimSpace(cfg.Notifications.TelegramBotToken)
	if token == "" {
		return Result{Name: name, Passed: true, Warning: true, Detail: "Disabled (no bot token)"}
	}
	if len(cfg.Notifications.Recipients) == 0 {
		return Result{Name: name, Passed: true, Warning: true, Detail: "Disabled (no recipients)"}
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.Notifications.APIBaseURL), "/")
	if base == "" {
		base = "https://api.telegram.org"
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := req.C().
		SetTimeout(10*time.Second).
		R().
		SetContext(checkCtx).
		Get(base + "/bot" + token + "/getMe")
	if err != nil {
		return Result{Name: name, Detail: summarizeTelegramError(err)}
	}
	body := resp.String()
	if !gjson.Get(body, "ok").Bool() {
		desc := gjson.Get(body, "description").String()
		if desc == "" {
			desc = fmt.Sprintf("HTTP %d", resp.GetStatusCode())
		}
		return Result{Name: name, Detail: fmt.Sprintf("auth failed (%s)", desc)}
	}
	username := gjson.Get(body, "result.username").String()
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("@%s -> %d recipient(s)", username, len(cfg.Notifications.Recipients)),
	}
}

func summarizeTelegramError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "getMe timed out (Bot API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "getMe timed out (Bot API unreachable)"
	}
	return err.Error()
}

// DisplayPath shortens paths under the home directory for status output.
func DisplayPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}
