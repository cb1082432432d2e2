package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cookie is the persisted form of a browser cookie. The JSON layout matches
// what browser automation tools export, so files written by other tooling load
// unchanged.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// LoadCookies reads a cookie backup file. Both a bare cookie array and a
// storage-state object with a "cookies" field are accepted. A missing file
// yields no cookies and no error.
func LoadCookies(path string) ([]Cookie, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err == nil {
		return validCookies(cookies), nil
	}
	var state struct {
		Cookies []Cookie `json:"cookies"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse cookies %s: %w", path, err)
	}
	return validCookies(state.Cookies), nil
}

// SaveCookies writes cookies as an indented JSON array, replacing the file
// atomically.
func SaveCookies(path string, cookies []Cookie) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cookies dir: %w", err)
	}
	if cookies == nil {
		cookies = []Cookie{}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace cookies: %w", err)
	}
	return nil
}

// CookieFileAge reports how long ago the cookie backup was written.
func CookieFileAge(path string, now time.Time) (time.Duration, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}

func validCookies(cookies []Cookie) []Cookie {
	out := cookies[:0]
	for _, c := range cookies {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Domain) == "" {
			continue
		}
		if c.Path == "" {
			c.Path = "/"
		}
		out = append(out, c)
	}
	return out
}
