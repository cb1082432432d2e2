package daemonrun

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"autopost/internal/logging"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
)

type fixedStatus struct {
	mu    sync.Mutex
	calls int
	st    scheduler.Status
}

func (f *fixedStatus) Status(context.Context) scheduler.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.st
}

func (f *fixedStatus) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestLogHeartbeatReportsQueueCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	src := &fixedStatus{st: scheduler.Status{
		Running: true,
		QueueStats: map[queue.Status]int{
			queue.StatusPending: 3,
			queue.StatusPosted:  7,
		},
	}}

	logHeartbeat(context.Background(), logger, src)

	line := buf.String()
	for _, want := range []string{
		`"msg":"heartbeat"`,
		`"` + logging.FieldEventType + `":"heartbeat"`,
		`"pending":3`,
		`"posted":7`,
		`"failed":0`,
		`"running":true`,
		`"busy":false`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("heartbeat missing %s in %s", want, line)
		}
	}
}

func TestRunHeartbeatTicksUntilCanceled(t *testing.T) {
	src := &fixedStatus{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runHeartbeat(ctx, logging.NewNop(), src, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.Calls() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("heartbeat did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop on cancel")
	}
}

func TestRunHeartbeatDisabled(t *testing.T) {
	src := &fixedStatus{}
	runHeartbeat(context.Background(), logging.NewNop(), src, 0)
	if src.Calls() != 0 {
		t.Fatalf("disabled heartbeat should not poll, got %d", src.Calls())
	}
}
