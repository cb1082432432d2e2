package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"autopost/internal/config"
	"autopost/internal/diagnostics"
	"autopost/internal/logging"
	"autopost/internal/notifications"
	"autopost/internal/preflight"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
)

// ErrInstanceRunning is returned when another process holds the daemon lock.
var ErrInstanceRunning = errors.New("another autopost daemon instance is already running")

// SessionChecker verifies the saved login without publishing anything.
type SessionChecker interface {
	CheckSession(ctx context.Context) error
}

// Daemon coordinates the dispatch scheduler and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	scheduler *scheduler.Scheduler
	session   SessionChecker
	notifier  notifications.Service
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Scheduler    scheduler.Status
	QueueDBPath  string
	LockFilePath string
	LogPath      string
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies. session may be nil,
// in which case CheckSession reports that no browser is configured.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, sched *scheduler.Scheduler, session SessionChecker, notifier notifications.Service, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		scheduler: sched,
		session:   session,
		notifier:  notifier,
		logPath:   logPath,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the slot triggers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrInstanceRunning
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.scheduler.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("autopost daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the triggers, waits for an in-flight cycle, and releases the lock.
// Canceling the daemon context interrupts the running attempt, which leaves its
// item pending with the retry budget untouched.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	done := d.scheduler.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	<-done.Done()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start reports a running instance"),
			logging.String(logging.FieldImpact, "next daemon start may be refused"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("autopost daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// RunLocked holds the instance lock for the duration of fn without starting
// the slot triggers. The CLI uses it to dispatch or check the session when no
// daemon is running, so the two never publish from one profile at once.
func (d *Daemon) RunLocked(fn func() error) error {
	if d.running.Load() {
		return fn()
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrInstanceRunning
	}
	defer func() {
		_ = d.lock.Unlock()
	}()
	return fn()
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Dispatch runs one dispatch cycle now, sharing the lock with the slot triggers.
func (d *Daemon) Dispatch(ctx context.Context) (scheduler.Report, error) {
	d.logger.Info("manual dispatch requested", logging.String(logging.FieldEventType, "dispatch_manual"))
	return d.scheduler.DispatchOnce(ctx)
}

// CheckSession opens the browser profile and verifies the login. It holds the
// dispatch lock so it never races a publish attempt for the profile.
func (d *Daemon) CheckSession(ctx context.Context) error {
	if d.session == nil {
		return errors.New("session check unavailable: no browser provider configured")
	}
	return d.scheduler.Exclusive(ctx, d.session.CheckSession)
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueItem returns a single item or nil when absent.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// RemoveItems deletes the given items and returns how many existed.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	for _, id := range ids {
		if err := d.store.Remove(ctx, id); err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// ClearPending removes pending items. It takes the dispatch lock so the item
// of an in-flight attempt is never deleted underneath it.
func (d *Daemon) ClearPending(ctx context.Context) (int64, error) {
	var removed int64
	err := d.scheduler.Exclusive(ctx, func(ctx context.Context) error {
		var clearErr error
		removed, clearErr = d.store.ClearPending(ctx)
		return clearErr
	})
	return removed, err
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test message through the configured sink.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	return SendTestNotification(ctx, d.notifier)
}

// SendTestNotification is shared by the daemon and the CLI fallback path.
func SendTestNotification(ctx context.Context, notifier notifications.Service) (bool, string, error) {
	if !notifications.Enabled(notifier) {
		return false, "telegram not configured", nil
	}
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// SendDiagnostics forwards the checkpoints of the latest attempt.
func (d *Daemon) SendDiagnostics(ctx context.Context) ([]diagnostics.Shot, int, error) {
	return SendLatestDiagnostics(ctx, d.cfg, d.notifier)
}

// SendLatestDiagnostics is shared by the daemon and the CLI fallback path.
func SendLatestDiagnostics(ctx context.Context, cfg *config.Config, notifier notifications.Service) ([]diagnostics.Shot, int, error) {
	shots, err := diagnostics.LatestAttempt(cfg.Paths.DiagnosticsDir)
	if err != nil || len(shots) == 0 {
		return nil, 0, err
	}
	sent, err := diagnostics.Send(ctx, notifier, shots)
	return shots, sent, err
}

// AddFile validates and enqueues a video for publishing.
func (d *Daemon) AddFile(ctx context.Context, req AddRequest) (*queue.Item, error) {
	return AddFile(ctx, d.cfg, d.store, d.logger, req)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Scheduler:    d.scheduler.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
