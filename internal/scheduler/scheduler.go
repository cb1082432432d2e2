package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/notifications"
	"autopost/internal/queue"
)

// Scheduler owns the dispatch lock and the cron triggers.
type Scheduler struct {
	cfg       *config.Config
	store     *queue.Store
	publisher Publisher
	notifier  notifications.Service
	logger    *slog.Logger

	loc   *time.Location
	slots []Slot
	lock  *semaphore.Weighted
	busy  atomic.Bool
	now   func() time.Time

	mu         sync.Mutex
	cron       *cron.Cron
	entries    map[string]cron.EntryID
	lastReport *Report
}

// New validates the schedule and builds a stopped scheduler.
func New(cfg *config.Config, store *queue.Store, publisher Publisher, notifier notifications.Service, logger *slog.Logger) (*Scheduler, error) {
	if cfg == nil || store == nil || publisher == nil {
		return nil, errors.New("scheduler requires config, store, and publisher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	slots, err := ParseSlots(cfg.Schedule.Times)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "scheduler"),
		loc:       loc,
		slots:     slots,
		lock:      semaphore.NewWeighted(1),
		now:       time.Now,
		entries:   make(map[string]cron.EntryID),
	}, nil
}

// ParseSlots converts HH:MM strings into slots sorted by time of day.
func ParseSlots(times []string) ([]Slot, error) {
	if len(times) == 0 {
		return nil, errors.New("no schedule times configured")
	}
	slots := make([]Slot, 0, len(times))
	for _, value := range times {
		hour, minute, err := config.ParseClock(value)
		if err != nil {
			return nil, err
		}
		slots = append(slots, Slot{Label: fmt.Sprintf("%02d:%02d", hour, minute), Hour: hour, Minute: minute})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Hour != slots[j].Hour {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].Minute < slots[j].Minute
	})
	return slots, nil
}

// Slots returns the configured slots.
func (s *Scheduler) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

// Start registers one cron entry per slot and starts firing. Jobs run with
// ctx, so canceling it interrupts an in-flight attempt.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	c := cron.New(cron.WithLocation(s.loc))
	for _, slot := range s.slots {
		spec := fmt.Sprintf("%d %d * * *", slot.Minute, slot.Hour)
		id, err := c.AddFunc(spec, func() { s.fire(ctx, slot) })
		if err != nil {
			return fmt.Errorf("register slot %s: %w", slot.Label, err)
		}
		s.entries[slot.Label] = id
	}
	c.Start()
	s.cron = c

	s.logger.Info("scheduler started",
		logging.String("timezone", s.loc.String()),
		logging.Int("slots", len(s.slots)),
		logging.Int("max_retry", s.cfg.Schedule.MaxRetry),
	)
	return nil
}

// Stop halts the triggers. The returned context is done once any running
// cycle has finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.entries = make(map[string]cron.EntryID)
	s.mu.Unlock()

	if c == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.logger.Info("scheduler stopping")
	return c.Stop()
}

// Busy reports whether a dispatch cycle holds the lock.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// Status reports lock state, next fire times, and queue counts.
func (s *Scheduler) Status(ctx context.Context) Status {
	s.mu.Lock()
	running := s.cron != nil
	var last *Report
	if s.lastReport != nil {
		snapshot := *s.lastReport
		last = &snapshot
	}
	slotStatus := make([]SlotStatus, 0, len(s.slots))
	now := s.now().In(s.loc)
	for _, slot := range s.slots {
		next := nextOccurrence(now, slot)
		if running {
			if entry := s.cron.Entry(s.entries[slot.Label]); !entry.Next.IsZero() {
				next = entry.Next.In(s.loc)
			}
		}
		slotStatus = append(slotStatus, SlotStatus{Slot: slot.Label, Next: next})
	}
	s.mu.Unlock()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	return Status{
		Running:    running,
		Busy:       s.Busy(),
		Timezone:   s.loc.String(),
		MaxRetry:   s.cfg.Schedule.MaxRetry,
		Slots:      slotStatus,
		QueueStats: stats,
		LastReport: last,
	}
}

func (s *Scheduler) fire(ctx context.Context, slot Slot) {
	logger := s.logger.With(logging.String("slot", slot.Label))
	logger.Info("slot fired")
	report, err := s.DispatchOnce(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "dispatch cycle failed", "dispatch_error",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run autopost queue health"),
			logging.String(logging.FieldImpact, "slot produced no publish"),
		)
		return
	}
	logger.Info("slot finished", logging.String("outcome", string(report.Outcome)))
}

// nextOccurrence returns the next time at or after now's following minute
// when slot fires, in now's location.
func nextOccurrence(now time.Time, slot Slot) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month(), now.Day()+1, slot.Hour, slot.Minute, 0, 0, now.Location())
	}
	return candidate
}

// UpcomingSlots computes next fire times from configuration alone. The CLI
// uses it to report the schedule when no daemon is running.
func UpcomingSlots(cfg *config.Config, now time.Time) ([]SlotStatus, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	slots, err := ParseSlots(cfg.Schedule.Times)
	if err != nil {
		return nil, err
	}
	local := now.In(loc)
	out := make([]SlotStatus, 0, len(slots))
	for _, slot := range slots {
		out = append(out, SlotStatus{Slot: slot.Label, Next: nextOccurrence(local, slot)})
	}
	return out, nil
}
