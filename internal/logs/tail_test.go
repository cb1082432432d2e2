package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"autopost/internal/logs"
)

func collect(lines *[]string, mu *sync.Mutex) func(string) error {
	return func(line string) error {
		mu.Lock()
		defer mu.Unlock()
		*lines = append(*lines, line)
		return nil
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopost.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var got []string
	var mu sync.Mutex
	if err := logs.Tail(context.Background(), path, logs.TailOptions{Lines: 2}, collect(&got, &mu)); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if !slices.Equal(got, []string{"b", "c"}) {
		t.Fatalf("unexpected lines %#v", got)
	}
}

func TestTailMissingFile(t *testing.T) {
	var got []string
	var mu sync.Mutex
	path := filepath.Join(t.TempDir(), "absent.log")
	if err := logs.Tail(context.Background(), path, logs.TailOptions{Lines: 5}, collect(&got, &mu)); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no lines, got %#v", got)
	}
}

func TestTailItemFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopost.log")
	content := "level=INFO msg=start item_id=1\n" +
		"level=INFO msg=other item_id=12\n" +
		`{"level":"INFO","msg":"posted","item_id":1}` + "\n" +
		"level=INFO msg=idle\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var got []string
	var mu sync.Mutex
	opts := logs.TailOptions{Lines: 10, Match: logs.ItemFilter(1)}
	if err := logs.Tail(context.Background(), path, opts, collect(&got, &mu)); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines for item 1, got %#v", got)
	}
}

func TestTailFollowPicksUpAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopost.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	var mu sync.Mutex
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.TailOptions{Lines: 1, Follow: true, Poll: 20 * time.Millisecond}, collect(&got, &mu))
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\npart"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Tail follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"start", "later"}) {
		t.Fatalf("unexpected lines %#v (fragment without newline must be held back)", got)
	}
}
