package diagnostics_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autopost/internal/diagnostics"
	"autopost/internal/notifications"
	"autopost/internal/services"
)

func writeShot(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeShot(t, dir, "20260101T060000-aaaaaaaa-001-login_check.png")
	writeShot(t, dir, "20260101T060001-aaaaaaaa-002-error.png")
	writeShot(t, dir, "20260102T090000-bbbbbbbb-003-final.png")
	writeShot(t, dir, "notes.txt")
	writeShot(t, dir, "random.png")

	shots, err := diagnostics.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(shots) != 3 {
		t.Fatalf("expected 3 shots, got %+v", shots)
	}
	if shots[0].Label != "final" || shots[0].Attempt != "bbbbbbbb" || shots[2].Label != "login_check" {
		t.Fatalf("unexpected order %+v", shots)
	}

	missing, err := diagnostics.List(filepath.Join(dir, "absent"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing dir should list nothing, got %v %v", missing, err)
	}
}

func TestLatestAttemptInCaptureOrder(t *testing.T) {
	dir := t.TempDir()
	writeShot(t, dir, "20260101T060000-aaaaaaaa-001-login_check.png")
	writeShot(t, dir, "20260102T090000-bbbbbbbb-002-login_check.png")
	writeShot(t, dir, "20260102T090005-bbbbbbbb-003-file_select.png")
	writeShot(t, dir, "20260102T090009-bbbbbbbb-004-error.png")

	shots, err := diagnostics.LatestAttempt(dir)
	if err != nil {
		t.Fatalf("LatestAttempt: %v", err)
	}
	var labels []string
	for _, shot := range shots {
		labels = append(labels, shot.Label)
	}
	if strings.Join(labels, ",") != "login_check,file_select,error" {
		t.Fatalf("unexpected checkpoints %v", labels)
	}
}

func TestSendForwardsEveryShot(t *testing.T) {
	dir := t.TempDir()
	writeShot(t, dir, "20260102T090000-bbbbbbbb-001-login_check.png")
	writeShot(t, dir, "20260102T090005-bbbbbbbb-002-error.png")
	shots, err := diagnostics.LatestAttempt(dir)
	if err != nil {
		t.Fatal(err)
	}

	notifier := &recordingNotifier{}
	sent, err := diagnostics.Send(context.Background(), notifier, shots)
	if err != nil || sent != 2 {
		t.Fatalf("Send = %d, %v", sent, err)
	}
	if !strings.HasPrefix(notifier.photos[0], "20260102T090000-bbbbbbbb-001-login_check.png|login_check (attempt bbbbbbbb") {
		t.Fatalf("unexpected caption %q", notifier.photos[0])
	}

	failing := &recordingNotifier{err: errors.New("bad request")}
	sent, err = diagnostics.Send(context.Background(), failing, shots)
	if sent != 0 || err == nil || !strings.Contains(err.Error(), "bad request") {
		t.Fatalf("expected joined send error, got %d %v", sent, err)
	}

	if _, err := diagnostics.Send(context.Background(), notifications.NewService(nil), shots); err == nil {
		t.Fatal("expected error without telegram")
	}
}

func TestCaptureNamesAreListed(t *testing.T) {
	reporter, cfg := newReporter(t, nil)
	ctx := services.WithAttemptID(context.Background(), "0123456789abcdef")
	if path := reporter.Capture(ctx, shooter{}, "Before Post!", ""); path == "" {
		t.Fatal("expected capture")
	}
	shots, err := diagnostics.List(cfg.Paths.DiagnosticsDir)
	if err != nil || len(shots) != 1 {
		t.Fatalf("List = %+v, %v", shots, err)
	}
	if shots[0].Attempt != "01234567" || shots[0].Label != "before_post" || shots[0].Seq != 1 {
		t.Fatalf("unexpected shot %+v", shots[0])
	}
}
