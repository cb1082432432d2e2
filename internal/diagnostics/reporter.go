package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/notifications"
	"autopost/internal/services"
	"autopost/internal/textutil"
)

// Checkpoint labels.
const (
	LabelLoginCheck  = "login_check"
	LabelFileSelect  = "file_select"
	LabelUploadReady = "upload_ready"
	LabelPopups      = "popup_dismiss"
	LabelCaption     = "caption"
	LabelBeforePost  = "before_post"
	LabelAfterPost   = "after_post"
	LabelFinal       = "final"
	LabelError       = "error"
)

const fileTimeLayout = "20060102T150405"

// Target is anything that can write a screenshot to a path.
type Target interface {
	Screenshot(path string) error
}

// Reporter writes checkpoint screenshots under the diagnostics directory.
type Reporter struct {
	dir      string
	forward  bool
	notifier notifications.Service
	logger   *slog.Logger
	seq      atomic.Int64
	now      func() time.Time
}

// NewReporter builds a reporter. Screenshots are forwarded only when
// diagnostics forwarding is enabled and the notifier actually delivers.
func NewReporter(cfg *config.Config, notifier notifications.Service, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reporter{
		dir:      cfg.Paths.DiagnosticsDir,
		forward:  cfg.Notifications.Diagnostics && notifications.Enabled(notifier),
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "diagnostics"),
		now:      time.Now,
	}
}

// Capture screenshots target, forwards the image with caption, and returns
// the written path. An empty path means nothing was written.
func (r *Reporter) Capture(ctx context.Context, target Target, label, caption string) (path string) {
	if r == nil || target == nil {
		return ""
	}
	logger := logging.WithContext(ctx, r.logger)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("diagnostic capture panicked",
				logging.String("label", label),
				logging.Any("panic", rec),
			)
			path = ""
		}
	}()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		logging.WarnWithContext(logger, "diagnostics directory unavailable", "diagnostics_capture",
			logging.String("dir", r.dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "screenshot skipped"),
		)
		return ""
	}

	path = filepath.Join(r.dir, r.fileName(ctx, label))
	if err := target.Screenshot(path); err != nil {
		logging.WarnWithContext(logger, "screenshot failed", "diagnostics_capture",
			logging.String("label", label),
			logging.Error(err),
			logging.String(logging.FieldImpact, "screenshot skipped"),
		)
		return ""
	}
	logger.Debug("screenshot captured", logging.String("label", label), logging.String("path", path))

	if r.forward {
		text := strings.TrimSpace(label + " " + caption)
		if err := r.notifier.SendPhoto(ctx, path, text); err != nil {
			logging.WarnWithContext(logger, "screenshot forward failed", "diagnostics_forward",
				logging.String("label", label),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check telegram token and recipients"),
				logging.String(logging.FieldImpact, "screenshot kept locally only"),
			)
		}
	}
	return path
}

// fileName builds <timestamp>-<attempt>-<seq>-<label>.png. The timestamp
// prefix keeps directory listings in capture order across attempts.
func (r *Reporter) fileName(ctx context.Context, label string) string {
	attempt := "adhoc"
	if id, ok := services.AttemptIDFromContext(ctx); ok && id != "" {
		attempt = id
		if len(attempt) > 8 {
			attempt = attempt[:8]
		}
	}
	seq := r.seq.Add(1)
	return fmt.Sprintf("%s-%s-%03d-%s.png", r.now().Format(fileTimeLayout), attempt, seq, textutil.SanitizeToken(label, "capture"))
}
