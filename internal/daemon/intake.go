package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopost/internal/config"
	"autopost/internal/fileutil"
	"autopost/internal/logging"
	"autopost/internal/queue"
	"autopost/internal/textutil"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

// AddRequest describes one manual intake.
type AddRequest struct {
	Path        string `json:"path"`
	Caption     string `json:"caption"`
	Copy        bool   `json:"copy"`
	SubmittedBy string `json:"submitted_by"`
}

// SupportedExtension reports whether path has an accepted video extension.
func SupportedExtension(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// AddFile validates a video file and enqueues it. With Copy set the file is
// first copied into the videos directory under a timestamped name so the
// queue no longer depends on the source location.
func AddFile(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger, req AddRequest) (*queue.Item, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	trimmed := strings.TrimSpace(req.Path)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file does not exist: %s", absPath)
		}
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	if !SupportedExtension(absPath) {
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(absPath))
	}

	target := absPath
	filename := textutil.SanitizeFileName(info.Name())
	if req.Copy {
		if err := os.MkdirAll(cfg.Paths.VideosDir, 0o755); err != nil {
			return nil, fmt.Errorf("create videos directory: %w", err)
		}
		var size int64
		filename, size, err = copyIntoVideos(cfg.Paths.VideosDir, absPath, req.SubmittedBy)
		if err != nil {
			return nil, fmt.Errorf("copy into videos directory: %w", err)
		}
		target = filepath.Join(cfg.Paths.VideosDir, filename)
		logger.Debug("video copied",
			logging.String("source", absPath),
			logging.String("target", target),
			logging.Int64("bytes", size))
	}

	item, err := store.Enqueue(ctx, filename, target, strings.TrimSpace(req.Caption), strings.TrimSpace(req.SubmittedBy))
	if err != nil {
		if req.Copy {
			_ = os.Remove(target)
		}
		return nil, fmt.Errorf("enqueue file: %w", err)
	}
	logger.Info("video queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEventType, "item_enqueued"),
		logging.String("filename", item.Filename),
		logging.Bool("copied", req.Copy))
	return item, nil
}

// copyIntoVideos copies source under a fresh name, adding a numeric suffix
// when two intakes land in the same second.
func copyIntoVideos(dir, source, submittedBy string) (string, int64, error) {
	base := copyName(time.Now(), source, submittedBy)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for n := 2; ; n++ {
		size, err := fileutil.CopyFileVerified(source, filepath.Join(dir, name))
		if err == nil {
			return name, size, nil
		}
		if !errors.Is(err, fileutil.ErrExists) || n > 99 {
			return "", 0, err
		}
		name = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
}

// copyName builds <YYYYmmdd_HHMMSS>_<submitter-or-stem><ext>.
func copyName(now time.Time, source, submittedBy string) string {
	ext := strings.ToLower(filepath.Ext(source))
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	token := textutil.SanitizeToken(submittedBy, "")
	if token == "" {
		token = textutil.SanitizeToken(stem, "video")
	}
	return fmt.Sprintf("%s_%s%s", now.Format("20060102_150405"), token, ext)
}
