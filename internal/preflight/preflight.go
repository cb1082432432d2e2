package preflight

import (
	"context"
	"time"

	"autopost/internal/config"
)

// Result reports the outcome of a single preflight check. Warning marks a
// passing check that still needs operator attention.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Telegram reachability is only checked when a token is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir),
		CheckDirectoryAccess("Diagnostics directory", cfg.Paths.DiagnosticsDir),
		CheckDirectoryAccess("Browser profile", cfg.Paths.ProfileDir),
		CheckCookies(cfg.Paths.CookiesPath, time.Now()),
		CheckVideoStorage(cfg.Paths.VideosDir),
	}
	results = append(results, CheckTelegram(ctx, cfg))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
