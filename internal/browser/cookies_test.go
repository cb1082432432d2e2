package browser_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"autopost/internal/browser"
)

func TestLoadCookiesMissingFile(t *testing.T) {
	cookies, err := browser.LoadCookies(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadCookies: %v", err)
	}
	if len(cookies) != 0 {
		t.Fatalf("expected no cookies, got %d", len(cookies))
	}
}

func TestLoadCookiesAcceptsArrayAndStorageState(t *testing.T) {
	dir := t.TempDir()
	array := filepath.Join(dir, "array.json")
	state := filepath.Join(dir, "state.json")
	if err := os.WriteFile(array, []byte(`[{"name":"sessionid","value":"abc","domain":".tiktok.com","path":"/","expires":-1,"httpOnly":true,"secure":true,"sameSite":"Lax"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(state, []byte(`{"cookies":[{"name":"sid_tt","value":"xyz","domain":".tiktok.com"},{"name":"","value":"junk","domain":"x"}],"origins":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	fromArray, err := browser.LoadCookies(array)
	if err != nil {
		t.Fatalf("LoadCookies array: %v", err)
	}
	if len(fromArray) != 1 || fromArray[0].Name != "sessionid" || !fromArray[0].HTTPOnly || fromArray[0].SameSite != "Lax" {
		t.Fatalf("unexpected array cookies: %+v", fromArray)
	}

	fromState, err := browser.LoadCookies(state)
	if err != nil {
		t.Fatalf("LoadCookies state: %v", err)
	}
	if len(fromState) != 1 || fromState[0].Name != "sid_tt" {
		t.Fatalf("unexpected state cookies: %+v", fromState)
	}
	if fromState[0].Path != "/" {
		t.Fatalf("expected default path, got %q", fromState[0].Path)
	}
}

func TestLoadCookiesRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := browser.LoadCookies(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveCookiesRoundTripAndAge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	want := []browser.Cookie{{Name: "sessionid", Value: "abc", Domain: ".tiktok.com", Path: "/"}}
	if err := browser.SaveCookies(path, want); err != nil {
		t.Fatalf("SaveCookies: %v", err)
	}
	got, err := browser.LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	age, ok := browser.CookieFileAge(path, time.Now().Add(time.Hour))
	if !ok {
		t.Fatal("expected cookie file age")
	}
	if age < 59*time.Minute {
		t.Fatalf("unexpected age %s", age)
	}
	if _, ok := browser.CookieFileAge(filepath.Join(t.TempDir(), "missing"), time.Now()); ok {
		t.Fatal("expected no age for missing file")
	}
}

func TestBoxCenter(t *testing.T) {
	x, y := browser.Box{X: 100, Y: 50, Width: 40, Height: 20}.Center()
	if x != 120 || y != 60 {
		t.Fatalf("unexpected center %v,%v", x, y)
	}
}
