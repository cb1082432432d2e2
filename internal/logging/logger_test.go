package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autopost/internal/logging"
	"autopost/internal/services"
)

func newLogFile(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestConsoleLoggerFormatsComponentAndItem(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithItemID(context.Background(), 42)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "scheduler"))
	logger.Info("dispatch started", logging.String("slot", "06:00"), logging.String("caption", "hello world"))
	logger.Debug("hidden")

	out := read()
	if !strings.Contains(out, "INFO scheduler[#42]: dispatch started") {
		t.Fatalf("expected component and item prefix, got %q", out)
	}
	if !strings.Contains(out, "slot=06:00") || !strings.Contains(out, `caption="hello world"`) {
		t.Fatalf("expected key/value pairs, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if out := read(); !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("expected caller information for debug logs, got %q", out)
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithAttemptID(services.WithPhase(context.Background(), "upload_wait"), "abc")
	logging.WithContext(ctx, logger).Warn("slow upload")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if payload[logging.FieldPhase] != "upload_wait" || payload[logging.FieldAttemptID] != "abc" {
		t.Fatalf("expected context fields, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "sink unavailable", "sink_unavailable", logging.String(logging.FieldImpact, "no screenshot"))
	out := read()
	for _, want := range []string{"event_type=sink_unavailable", "error_hint=", `impact="no screenshot"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestCleanupOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "autopost-old.log")
	keep := filepath.Join(dir, "autopost-current.log")
	fresh := filepath.Join(dir, "autopost-fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, keep, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, keep, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldFiles(logging.NewNop(), 5,
		logging.RetentionTarget{Dir: dir, Pattern: "autopost-*.log", Exclude: []string{keep}},
	)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, err=%v", err)
	}
	for _, path := range []string{keep, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}

	if removed := logging.CleanupOldFiles(nil, 0, logging.RetentionTarget{Dir: dir}); removed != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", removed)
	}
}

func TestCleanupOldFilesKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.png", "b.png", "c.png"}
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		stamp := time.Now().AddDate(0, 0, -30+i)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.CleanupOldFiles(nil, 7, logging.RetentionTarget{Dir: dir, Pattern: "*.png", KeepNewest: 2})
	if removed != 1 {
		t.Fatalf("expected only the oldest shot pruned, removed %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); !os.IsNotExist(err) {
		t.Fatalf("expected a.png removed, err=%v", err)
	}
	for _, name := range names[1:] {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s kept: %v", name, err)
		}
	}

	if removed := logging.CleanupOldFiles(nil, 7, logging.RetentionTarget{Dir: filepath.Join(dir, "missing")}); removed != 0 {
		t.Fatalf("missing dir should prune nothing, removed %d", removed)
	}
}
