package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"autopost/internal/logging"
	"autopost/internal/notifications"
	"autopost/internal/queue"
	"autopost/internal/services"
	"autopost/internal/uploader"
)

// DispatchOnce runs one cycle: take the oldest pending item, publish it, and
// record the outcome. When another cycle holds the lock the call returns
// OutcomeSkipped immediately without touching the queue. Errors are returned
// only for store failures; publish failures are outcomes.
func (s *Scheduler) DispatchOnce(ctx context.Context) (Report, error) {
	if !s.lock.TryAcquire(1) {
		logging.WarnWithContext(s.logger, "dispatch skipped, previous cycle still running", "dispatch_skipped",
			logging.String(logging.FieldErrorHint, "increase the spacing between schedule times if this repeats"),
			logging.String(logging.FieldImpact, "no item dispatched for this trigger"),
		)
		return Report{Outcome: OutcomeSkipped, Finished: s.now()}, nil
	}
	defer s.lock.Release(1)
	s.busy.Store(true)
	defer s.busy.Store(false)

	report, err := s.dispatch(ctx)
	report.Finished = s.now()
	if err == nil {
		s.mu.Lock()
		snapshot := report
		s.lastReport = &snapshot
		s.mu.Unlock()
	}
	return report, err
}

// ErrBusy is returned by Exclusive while a dispatch cycle holds the lock.
var ErrBusy = errors.New("dispatch in progress")

// Exclusive runs fn under the dispatch lock. Operator actions that open the
// browser profile use it so they never overlap a publish attempt.
func (s *Scheduler) Exclusive(ctx context.Context, fn func(context.Context) error) error {
	if !s.lock.TryAcquire(1) {
		return ErrBusy
	}
	defer s.lock.Release(1)
	s.busy.Store(true)
	defer s.busy.Store(false)
	return fn(ctx)
}

func (s *Scheduler) dispatch(ctx context.Context) (Report, error) {
	item, err := s.store.NextPending(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("next pending: %w", err)
	}
	if item == nil {
		s.logger.Info("queue empty, nothing to dispatch")
		return Report{Outcome: OutcomeIdle}, nil
	}

	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, s.logger)
	report := Report{ItemID: item.ID, Filename: item.Filename}

	if _, statErr := os.Stat(item.FilePath); statErr != nil {
		message := fmt.Sprintf("%s: %s", queue.FileMissingPrefix, item.FilePath)
		if err := s.store.MarkFailed(ctx, item.ID, message); err != nil {
			return report, err
		}
		logging.WarnWithContext(logger, "source file missing", "file_missing",
			logging.String("path", item.FilePath),
			logging.Error(statErr),
			logging.String(logging.FieldErrorHint, "re-add the video with autopost add"),
			logging.String(logging.FieldImpact, "item failed without an attempt"),
		)
		s.notify(ctx, notifications.EventItemFailed, notifications.Payload{"filename": item.Filename, "error": message})
		report.Outcome = OutcomeFileMissing
		report.Message = message
		return report, nil
	}

	logger.Info("dispatching item",
		logging.String("filename", item.Filename),
		logging.Int("retry_count", item.RetryCount),
	)
	result := s.runPublisher(ctx, uploader.Request{
		ItemID:   item.ID,
		FilePath: item.FilePath,
		Caption:  item.CaptionOr(s.cfg.Publish.DefaultCaption),
	})
	report.Message = result.Message
	// The outcome is recorded even when shutdown canceled ctx mid-attempt.
	ctx = context.WithoutCancel(ctx)

	if result.Success {
		if err := s.store.MarkPosted(ctx, item.ID); err != nil {
			return report, err
		}
		logger.Info("item posted",
			logging.String("filename", item.Filename),
			logging.Bool("diverted", result.Diverted),
		)
		payload := notifications.Payload{"filename": item.Filename}
		if result.Diverted {
			payload["message"] = result.Message
		}
		s.notify(ctx, notifications.EventItemPosted, payload)
		report.Outcome = OutcomePosted
		report.Diverted = result.Diverted
		return report, nil
	}

	if result.Kind == services.KindCanceled {
		logger.Info("attempt interrupted by shutdown, item stays pending")
		report.Outcome = OutcomeInterrupted
		return report, nil
	}
	return s.recordFailure(ctx, item, result, report)
}

// recordFailure spends one unit of retry budget. The item stays pending while
// the new count is within max_retry, so a budget of N allows N+1 attempts.
func (s *Scheduler) recordFailure(ctx context.Context, item *queue.Item, result uploader.Result, report Report) (Report, error) {
	logger := logging.WithContext(ctx, s.logger)
	retry, err := s.store.IncrementRetry(ctx, item.ID)
	if err != nil {
		return report, err
	}
	report.Retry = retry

	if result.Kind == services.KindSessionExpired {
		s.notify(ctx, notifications.EventSessionExpired, notifications.Payload{"filename": item.Filename})
	}

	maxRetry := s.cfg.Schedule.MaxRetry
	if retry <= maxRetry {
		if err := s.store.RecordAttemptError(ctx, item.ID, result.Message); err != nil {
			logger.Warn("failed to record attempt error", logging.Error(err))
		}
		logging.WarnWithContext(logger, "publish attempt failed, will retry", "publish_retry",
			logging.Int("retry", retry),
			logging.Int("max_retry", maxRetry),
			logging.String(logging.FieldErrorKind, string(result.Kind)),
			logging.String("error", result.Message),
			logging.String(logging.FieldImpact, "item retried at the next slot"),
		)
		s.notify(ctx, notifications.EventItemRetrying, notifications.Payload{
			"filename":  item.Filename,
			"retry":     retry,
			"max_retry": maxRetry,
			"error":     result.Message,
		})
		report.Outcome = OutcomeRetrying
		return report, nil
	}

	if err := s.store.MarkFailed(ctx, item.ID, result.Message); err != nil {
		return report, err
	}
	logging.ErrorWithContext(logger, "retry budget exhausted, item failed", "publish_failed",
		logging.Int("retry", retry),
		logging.String(logging.FieldErrorKind, string(result.Kind)),
		logging.String("error", result.Message),
		logging.String(logging.FieldErrorHint, "fix the cause, then run autopost queue retry"),
		logging.String(logging.FieldImpact, "item will not be posted"),
	)
	s.notify(ctx, notifications.EventItemFailed, notifications.Payload{"filename": item.Filename, "error": result.Message})
	report.Outcome = OutcomeFailed
	return report, nil
}

// runPublisher converts a publisher panic into a failed attempt.
func (s *Scheduler) runPublisher(ctx context.Context, req uploader.Request) (result uploader.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = uploader.Result{
				Message: fmt.Sprintf("publisher panic: %v", rec),
				Kind:    services.KindInternal,
			}
		}
	}()
	return s.publisher.Publish(ctx, req)
}

func (s *Scheduler) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := s.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(s.logger, "notification failed", "notification_error",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcome recorded but not announced"),
		)
	}
}
