package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"autopost/internal/notifications"
)

// Shot is a screenshot previously written by Capture.
type Shot struct {
	Path    string    `json:"path"`
	Attempt string    `json:"attempt"`
	Seq     int       `json:"seq"`
	Label   string    `json:"label"`
	Taken   time.Time `json:"taken"`
	Size    int64     `json:"size"`
}

// List returns the screenshots in dir, newest first. Files that were not
// written by Capture are ignored. A missing directory yields no shots.
func List(dir string) ([]Shot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read diagnostics dir: %w", err)
	}
	shots := make([]Shot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		shot, ok := parseShotName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		shot.Path = filepath.Join(dir, entry.Name())
		shot.Size = info.Size()
		shots = append(shots, shot)
	}
	sort.Slice(shots, func(i, j int) bool {
		if !shots[i].Taken.Equal(shots[j].Taken) {
			return shots[i].Taken.After(shots[j].Taken)
		}
		return shots[i].Seq > shots[j].Seq
	})
	return shots, nil
}

// LatestAttempt returns the checkpoints of the most recent attempt in capture
// order.
func LatestAttempt(dir string) ([]Shot, error) {
	shots, err := List(dir)
	if err != nil || len(shots) == 0 {
		return nil, err
	}
	attempt := shots[0].Attempt
	var out []Shot
	for _, shot := range shots {
		if shot.Attempt == attempt {
			out = append(out, shot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Send forwards shots through notifier and returns how many were delivered.
// Delivery continues past individual failures; the joined error lists them.
func Send(ctx context.Context, notifier notifications.Service, shots []Shot) (int, error) {
	if !notifications.Enabled(notifier) {
		return 0, errors.New("telegram not configured")
	}
	sent := 0
	var errs []error
	for _, shot := range shots {
		caption := fmt.Sprintf("%s (attempt %s, %s)", shot.Label, shot.Attempt, shot.Taken.Format("2006-01-02 15:04:05"))
		if err := notifier.SendPhoto(ctx, shot.Path, caption); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(shot.Path), err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// parseShotName reads <timestamp>-<attempt>-<seq>-<label>.png.
func parseShotName(name string) (Shot, bool) {
	base, ok := strings.CutSuffix(name, ".png")
	if !ok {
		return Shot{}, false
	}
	parts := strings.SplitN(base, "-", 4)
	if len(parts) != 4 {
		return Shot{}, false
	}
	taken, err := time.ParseInLocation(fileTimeLayout, parts[0], time.Local)
	if err != nil {
		return Shot{}, false
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return Shot{}, false
	}
	return Shot{Attempt: parts[1], Seq: seq, Label: parts[3], Taken: taken}, true
}
