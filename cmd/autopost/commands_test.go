package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autopost/internal/queue"
	"autopost/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "autopost.toml")
	out, err = env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, err = env.run(t, "config", "init", "--path", target)
	requireErrorContains(t, err, "already exists")
}

func TestQueueCommandsThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)

	source := filepath.Join(t.TempDir(), "holiday clip.mp4")
	testsupport.WriteFile(t, source, 4096)

	out, err := env.run(t, "add", source, "--caption", "Sunset", "--submitted-by", "ops")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued holiday_clip.mp4 as item #1")

	out, err = env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "holiday_clip.mp4")
	requireContains(t, out, "Pending")
	requireContains(t, out, "Sunset")

	out, err = env.run(t, "queue", "show", "1")
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Submitted by: ops")

	_, err = env.run(t, "queue", "show", "42")
	requireErrorContains(t, err, "item 42 not found")

	out, err = env.run(t, "dispatch")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	requireContains(t, out, "Posted item #1")

	item, err := env.store.GetByID(context.Background(), 1)
	if err != nil || item == nil || item.Status != queue.StatusPosted {
		t.Fatalf("expected posted item, got %+v, %v", item, err)
	}

	out, err = env.run(t, "dispatch")
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	requireContains(t, out, "no pending items")

	out, err = env.run(t, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Posted")

	out, err = env.run(t, "--json", "queue", "list", "--status", "posted")
	if err != nil {
		t.Fatalf("queue list json: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode json list: %v\n%s", err, out)
	}
	if len(items) != 1 || items[0]["status"] != "posted" {
		t.Fatalf("unexpected json items %v", items)
	}

	testsupport.NewVideo(t, env.cfg, env.store, "later.mp4", "")
	out, err = env.run(t, "queue", "clear-pending")
	if err != nil {
		t.Fatalf("queue clear-pending: %v", err)
	}
	requireContains(t, out, "Removed 1 pending item(s)")

	_, err = env.run(t, "queue", "clear")
	requireErrorContains(t, err, "--yes")
	out, err = env.run(t, "queue", "clear", "--yes")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 queue item(s)")
}

func TestSessionCheckThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)
	out, err := env.run(t, "session", "check")
	if err != nil {
		t.Fatalf("session check: %v", err)
	}
	requireContains(t, out, "Session valid")
}

func TestQueueCommandsWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t, false)
	ctx := context.Background()

	first := testsupport.NewVideo(t, env.cfg, env.store, "a.mp4", "first")
	second := testsupport.NewVideo(t, env.cfg, env.store, "b.mp4", "")
	if err := env.store.MarkFailed(ctx, second.ID, "submit button never enabled"); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "queue", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "submit button never enabled")
	if strings.Contains(out, "a.mp4") {
		t.Fatalf("status filter leaked pending item:\n%s", out)
	}

	_, err = env.run(t, "queue", "list", "--status", "bogus")
	requireErrorContains(t, err, "unknown status")

	out, err = env.run(t, "queue", "retry")
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Reset 1 item(s) to pending")

	out, err = env.run(t, "queue", "retry", "1")
	if err != nil {
		t.Fatalf("queue retry pending: %v", err)
	}
	requireContains(t, out, "only failed items can be retried")

	_, err = env.run(t, "queue", "remove", "abc")
	requireErrorContains(t, err, "invalid item id")

	out, err = env.run(t, "queue", "remove", "1", "99")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed 1 of 2 item(s)")
	if item, _ := env.store.GetByID(ctx, first.ID); item != nil {
		t.Fatal("expected item 1 removed")
	}

	out, err = env.run(t, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Integrity check: yes")
	requireContains(t, out, "Total items: 1")

	out, err = env.run(t, "queue", "clear-failed")
	if err != nil {
		t.Fatalf("queue clear-failed: %v", err)
	}
	requireContains(t, out, "Removed 0 failed item(s)")

	out, err = env.run(t, "queue", "clear-pending")
	if err != nil {
		t.Fatalf("queue clear-pending: %v", err)
	}
	requireContains(t, out, "Removed 1 pending item(s)")
	out, err = env.run(t, "queue", "clear-pending")
	if err != nil {
		t.Fatalf("second queue clear-pending: %v", err)
	}
	requireContains(t, out, "No pending items to remove")
}

func TestAddWithoutDaemonCopiesIntoVideos(t *testing.T) {
	env := setupCLITestEnv(t, false)
	source := filepath.Join(t.TempDir(), "raw.mov")
	testsupport.WriteFile(t, source, 1024)

	out, err := env.run(t, "add", source, "--copy", "--submitted-by", "Night Shift")
	if err != nil {
		t.Fatalf("add --copy: %v", err)
	}
	requireContains(t, out, "_night_shift.mov")

	items, err := env.store.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one item, got %d, %v", len(items), err)
	}
	if filepath.Dir(items[0].FilePath) != env.cfg.Paths.VideosDir {
		t.Fatalf("copy landed outside videos dir: %s", items[0].FilePath)
	}

	_, err = env.run(t, "add", filepath.Join(t.TempDir(), "notes.txt"))
	requireErrorContains(t, err, "unsupported file extension")
}

func TestDispatchWithoutDaemonUsesLocalRuntime(t *testing.T) {
	env := setupCLITestEnv(t, false)
	useLocalProvider(t, "chromium not installed")

	out, err := env.run(t, "dispatch")
	if err != nil {
		t.Fatalf("idle dispatch: %v", err)
	}
	requireContains(t, out, "no pending items")

	item := testsupport.NewVideo(t, env.cfg, env.store, "clip.mp4", "hello")
	out, err = env.run(t, "dispatch")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	requireContains(t, out, "will retry")

	got, err := env.store.GetByID(context.Background(), item.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending || got.RetryCount != 1 {
		t.Fatalf("expected pending with one retry, got %s/%d", got.Status, got.RetryCount)
	}
}

func TestSessionCheckWithoutDaemonReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t, false)
	useLocalProvider(t, "chromium not installed")

	out, err := env.run(t, "session", "check")
	requireErrorContains(t, err, "session check failed")
	requireContains(t, out, "Session invalid")
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t, false)
	testsupport.NewVideo(t, env.cfg, env.store, "a.mp4", "")

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "Slot ")
	requireContains(t, out, "Cookie backup")
	requireContains(t, out, "None saved yet")
	requireContains(t, out, "Videos directory")
	requireContains(t, out, "Pending")
}

func TestTestNotifyWithoutTelegram(t *testing.T) {
	env := setupCLITestEnv(t, false)
	out, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "telegram not configured")
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t, false)
	content := "level=INFO msg=one item_id=3\nlevel=INFO msg=two\nlevel=INFO msg=three item_id=3\n"
	if err := os.WriteFile(env.cfg.CurrentLogPath(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "level=INFO msg=two\nlevel=INFO msg=three item_id=3\n" {
		t.Fatalf("unexpected logs output %q", out)
	}

	out, err = env.run(t, "logs", "--item", "3")
	if err != nil {
		t.Fatalf("logs --item: %v", err)
	}
	if strings.Count(out, "\n") != 2 || strings.Contains(out, "msg=two") {
		t.Fatalf("unexpected filtered output %q", out)
	}
}

func TestDiagnosticsListAndSendWithoutTelegram(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "diagnostics", "list")
	if err != nil {
		t.Fatalf("diagnostics list: %v", err)
	}
	requireContains(t, out, "No screenshots in")

	out, err = env.run(t, "diagnostics", "send")
	if err != nil {
		t.Fatalf("diagnostics send: %v", err)
	}
	requireContains(t, out, "No screenshots to send")

	dir := env.cfg.Paths.DiagnosticsDir
	testsupport.WriteFile(t, filepath.Join(dir, "20260101T060000-aaaaaaaa-001-login_check.png"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "20260102T090000-bbbbbbbb-002-before_post.png"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "20260102T090004-bbbbbbbb-003-error.png"), 8)

	out, err = env.run(t, "diagnostics", "list", "-n", "2")
	if err != nil {
		t.Fatalf("diagnostics list: %v", err)
	}
	requireContains(t, out, "before_post")
	requireContains(t, out, "error")
	if strings.Contains(out, "aaaaaaaa") {
		t.Fatalf("limit should drop the oldest shot:\n%s", out)
	}

	out, err = env.run(t, "--json", "diagnostics", "list")
	if err != nil {
		t.Fatalf("diagnostics list json: %v", err)
	}
	var shots []map[string]any
	if err := json.Unmarshal([]byte(out), &shots); err != nil {
		t.Fatalf("decode json shots: %v\n%s", err, out)
	}
	if len(shots) != 3 || shots[0]["label"] != "error" {
		t.Fatalf("unexpected json shots %v", shots)
	}

	out, err = env.run(t, "diagnostics", "send")
	requireErrorContains(t, err, "telegram not configured")
	requireContains(t, out, "Sent 0 of 2 screenshot(s) from attempt bbbbbbbb")
}
