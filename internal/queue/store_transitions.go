package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// MarkPosted records a successful publish. Only pending items transition;
// ErrNotFound is returned when no pending row matches.
func (s *Store) MarkPosted(ctx context.Context, id int64) error {
	timestamp := s.timestamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, posted_at = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPosted,
		timestamp,
		timestamp,
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("mark posted %d: %w", id, err)
	}
	return nil
}

// MarkFailed records a terminal failure with its message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "publish failed"
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed,
		message,
		s.timestamp(),
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("mark failed %d: %w", id, err)
	}
	return nil
}

// IncrementRetry bumps the retry counter in a single statement and returns
// the new value.
func (s *Store) IncrementRetry(ctx context.Context, id int64) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(
			ctx,
			`UPDATE queue_items
             SET retry_count = retry_count + 1, updated_at = ?
             WHERE id = ?
             RETURNING retry_count`,
			s.timestamp(),
			id,
		).Scan(&count)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("increment retry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("increment retry: %w", err)
	}
	return count, nil
}

// RecordAttemptError stores the last failure message on an item that stays
// pending, so operators can see why it is being retried.
func (s *Store) RecordAttemptError(ctx context.Context, id int64, message string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		nullableString(message),
		s.timestamp(),
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("record attempt error: %w", err)
	}
	return requireAffected(res)
}

// RetryFailed resets failed items to pending with a fresh retry budget. With
// no ids every failed item is reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
         SET status = ?, retry_count = 0, error_message = NULL, updated_at = ?
         WHERE status = ?`
	args := []any{StatusPending, s.timestamp(), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, int64Args(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
