package diagnostics_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"autopost/internal/config"
	"autopost/internal/diagnostics"
	"autopost/internal/notifications"
	"autopost/internal/services"
	"autopost/internal/testsupport"
)

type shooter struct {
	err   error
	panic bool
}

func (s shooter) Screenshot(path string) error {
	if s.panic {
		panic("page crashed")
	}
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(path, []byte("png"), 0o644)
}

type recordingNotifier struct {
	mu     sync.Mutex
	photos []string
	err    error
}

func (n *recordingNotifier) Publish(context.Context, notifications.Event, notifications.Payload) error {
	return nil
}

func (n *recordingNotifier) SendPhoto(_ context.Context, path, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.photos = append(n.photos, filepath.Base(path)+"|"+caption)
	return n.err
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func newReporter(t *testing.T, notifier notifications.Service) (*diagnostics.Reporter, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.Diagnostics = true
	return diagnostics.NewReporter(cfg, notifier, nil), cfg
}

func TestCaptureWritesAndForwards(t *testing.T) {
	notifier := &recordingNotifier{}
	reporter, cfg := newReporter(t, notifier)

	ctx := services.WithAttemptID(context.Background(), "0123456789abcdef")
	path := reporter.Capture(ctx, shooter{}, diagnostics.LabelBeforePost, "clip.mp4")
	if path == "" {
		t.Fatal("expected a screenshot path")
	}
	if filepath.Dir(path) != cfg.Paths.DiagnosticsDir {
		t.Fatalf("screenshot written outside diagnostics dir: %s", path)
	}
	base := filepath.Base(path)
	if !strings.Contains(base, "-01234567-001-before_post.png") {
		t.Fatalf("unexpected file name %q", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat screenshot: %v", err)
	}
	if len(notifier.photos) != 1 || !strings.HasSuffix(notifier.photos[0], "|before_post clip.mp4") {
		t.Fatalf("unexpected forwarded photos: %v", notifier.photos)
	}

	second := reporter.Capture(ctx, shooter{}, "after post!", "")
	if !strings.HasSuffix(second, "-002-after_post_.png") {
		t.Fatalf("expected sanitized sequential name, got %q", second)
	}
}

func TestCaptureSwallowsFailures(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	reporter, _ := newReporter(t, notifier)

	if path := reporter.Capture(context.Background(), shooter{err: errors.New("no page")}, diagnostics.LabelError, ""); path != "" {
		t.Fatalf("expected empty path on screenshot failure, got %q", path)
	}
	if path := reporter.Capture(context.Background(), shooter{panic: true}, diagnostics.LabelError, ""); path != "" {
		t.Fatalf("expected empty path on panic, got %q", path)
	}
	if path := reporter.Capture(context.Background(), shooter{}, diagnostics.LabelFinal, ""); path == "" {
		t.Fatal("forwarding failure must not discard the local screenshot")
	}
	if len(notifier.photos) != 1 {
		t.Fatalf("expected one forward attempt, got %d", len(notifier.photos))
	}
}

func TestCaptureWithoutForwarding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.Diagnostics = true
	reporter := diagnostics.NewReporter(cfg, notifications.NewService(cfg), nil)
	if path := reporter.Capture(context.Background(), shooter{}, diagnostics.LabelFinal, ""); path == "" {
		t.Fatal("expected local capture without a notifier")
	}

	var nilReporter *diagnostics.Reporter
	if path := nilReporter.Capture(context.Background(), shooter{}, diagnostics.LabelFinal, ""); path != "" {
		t.Fatal("nil reporter should be inert")
	}
}
