package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"autopost/internal/config"
	"autopost/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideo writes a small file under the config's videos dir and enqueues it.
func NewVideo(t testing.TB, cfg *config.Config, store *queue.Store, name, caption string) *queue.Item {
	t.Helper()

	path := filepath.Join(cfg.Paths.VideosDir, name)
	WriteFile(t, path, 1024)
	item, err := store.Enqueue(context.Background(), name, path, caption, "")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
