package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Enqueue inserts a new pending item with a zero retry count.
func (s *Store) Enqueue(ctx context.Context, filename, path, caption, submittedBy string) (*Item, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("enqueue: file path is required")
	}
	if strings.TrimSpace(filename) == "" {
		filename = filepath.Base(path)
	}
	timestamp := s.timestamp()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            filename, filepath, caption, status, retry_count, submitted_by, created_at, updated_at
        ) VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		filename,
		path,
		nullableString(caption),
		StatusPending,
		nullableString(submittedBy),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. It returns nil, nil when no
// row matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// NextPending returns the oldest pending item (creation time, then id) or
// nil when the queue has no pending work. It does not change any state.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items
         WHERE status = ?
         ORDER BY created_at ASC, id ASC
         LIMIT 1`,
		StatusPending,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// ListPending returns pending items in the order they will be dispatched.
func (s *Store) ListPending(ctx context.Context) ([]*Item, error) {
	return s.List(ctx, StatusPending)
}

// List returns items in creation order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}
