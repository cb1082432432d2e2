package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// RetentionTarget selects files in Dir whose base name matches Pattern.
// Exclude lists paths that are never pruned, and the KeepNewest most recent
// matches survive regardless of age.
type RetentionTarget struct {
	Dir        string
	Pattern    string
	Exclude    []string
	KeepNewest int
}

type retentionCandidate struct {
	path    string
	modTime time.Time
}

// CleanupOldFiles deletes matches older than retentionDays and returns the
// number removed. retentionDays <= 0 disables pruning.
func CleanupOldFiles(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		for _, candidate := range target.expired(cutoff) {
			if err := os.Remove(candidate.path); err != nil {
				WarnWithContext(logger, "retention remove failed; file remains", "retention_remove_failed",
					String("path", candidate.path),
					Error(err),
					String(FieldErrorHint, "check file permissions and directory ownership"),
					String(FieldImpact, "old file remains on disk"),
				)
				continue
			}
			removed++
			logger.Debug("file pruned",
				String("path", candidate.path),
				String(FieldEventType, "file_pruned"),
				Duration("age", time.Since(candidate.modTime).Round(time.Hour)),
			)
		}
	}
	return removed
}

// expired lists matches modified before cutoff, skipping exclusions and the
// KeepNewest most recent matches. An unreadable directory yields nothing.
func (t RetentionTarget) expired(cutoff time.Time) []retentionCandidate {
	dir := strings.TrimSpace(t.Dir)
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	pattern := strings.TrimSpace(t.Pattern)
	skip := t.excluded()

	var matches []retentionCandidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			if ok, matchErr := filepath.Match(pattern, entry.Name()); matchErr != nil || !ok {
				continue
			}
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if slices.Contains(skip, path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		matches = append(matches, retentionCandidate{path: path, modTime: info.ModTime()})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })
	if t.KeepNewest > 0 {
		matches = matches[min(t.KeepNewest, len(matches)):]
	}
	return slices.DeleteFunc(matches, func(c retentionCandidate) bool { return !c.modTime.Before(cutoff) })
}

func (t RetentionTarget) excluded() []string {
	out := make([]string, 0, len(t.Exclude))
	for _, path := range t.Exclude {
		if path = strings.TrimSpace(path); path != "" {
			out = append(out, absPath(path))
		}
	}
	return out
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
