package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"autopost/internal/config"
	"autopost/internal/ipc"
	"autopost/internal/logging"
	"autopost/internal/notifications"
	"autopost/internal/preflight"
	"autopost/internal/queue"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	SocketPath  string
	Development bool
}

// Run starts the autopost daemon runtime loop and blocks until SIGINT or
// SIGTERM. An in-flight attempt is interrupted on shutdown and its item stays
// pending.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	sessionID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("autopost-%s.log", runID))

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update autopost.log link: %v\n", err)
	}
	logging.CleanupOldFiles(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "autopost-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: cfg.Paths.DiagnosticsDir, Pattern: "*.png", KeepNewest: diagnosticsKeep},
	)
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	rt, err := Assemble(cfg, store, logger, nil, logPath)
	if err != nil {
		_ = store.Close()
		return err
	}
	d := rt.Daemon
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	slots := make([]string, 0, len(cfg.Schedule.Times))
	for _, slot := range rt.Scheduler.Slots() {
		slots = append(slots, slot.Label)
	}
	if err := rt.Notifier.Publish(signalCtx, notifications.EventDaemonStarted, notifications.Payload{
		"slots": strings.Join(slots, ", ") + " " + cfg.Schedule.Timezone,
	}); err != nil {
		logging.WarnWithContext(logger, "startup notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run autopost test-notify"),
			logging.String(logging.FieldImpact, "operators were not told the daemon started"),
		)
	}

	go runHeartbeat(signalCtx, logger, rt.Scheduler, heartbeatInterval)

	<-signalCtx.Done()
	logger.Info("autopost daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		check := logging.String("check", result.Name)
		detail := logging.String("detail", result.Detail)
		switch {
		case !result.Passed:
			logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
				check, detail,
				logging.String(logging.FieldErrorHint, "run autopost status for details"),
				logging.String(logging.FieldImpact, "dispatch cycles may fail"),
			)
		case result.Warning:
			logging.WarnWithContext(logger, "preflight check needs attention", "preflight_warning",
				check, detail,
				logging.String(logging.FieldImpact, "publishing continues"),
			)
		default:
			logger.Debug("preflight check passed", check, detail)
		}
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "autopost.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
