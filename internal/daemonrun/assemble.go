package daemonrun

import (
	"fmt"
	"log/slog"

	"autopost/internal/browser"
	"autopost/internal/config"
	"autopost/internal/daemon"
	"autopost/internal/diagnostics"
	"autopost/internal/notifications"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
	"autopost/internal/uploader"
)

// Runtime bundles the wired components behind a daemon.
type Runtime struct {
	Daemon    *daemon.Daemon
	Scheduler *scheduler.Scheduler
	Uploader  *uploader.Uploader
	Notifier  notifications.Service
}

// Assemble wires the production stack around store. provider may be nil, in
// which case the playwright provider is built from cfg.
func Assemble(cfg *config.Config, store *queue.Store, logger *slog.Logger, provider browser.Provider, logPath string) (*Runtime, error) {
	if provider == nil {
		provider = browser.NewPlaywrightProvider(browser.OptionsFromConfig(cfg), logger)
	}
	notifier := notifications.NewService(cfg)
	reporter := diagnostics.NewReporter(cfg, notifier, logger)
	up := uploader.New(cfg, provider, reporter, logger)

	sched, err := scheduler.New(cfg, store, up, notifier, logger)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	d, err := daemon.New(cfg, store, logger, sched, up, notifier, logPath)
	if err != nil {
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return &Runtime{Daemon: d, Scheduler: sched, Uploader: up, Notifier: notifier}, nil
}
