package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"autopost/internal/daemonctl"
	"autopost/internal/testsupport"
)

func TestLaunchArgs(t *testing.T) {
	got := daemonctl.LaunchArgs(daemonctl.LaunchOptions{
		SocketPath: " /tmp/a.sock ",
		ConfigPath: "/etc/autopost.toml",
		LogLevel:   "debug",
	})
	want := []string{"run", "--socket", "/tmp/a.sock", "--config", "/etc/autopost.toml", "--log-level", "debug"}
	if !slices.Equal(got, want) {
		t.Fatalf("LaunchArgs = %v, want %v", got, want)
	}
	if got := daemonctl.LaunchArgs(daemonctl.LaunchOptions{}); !slices.Equal(got, []string{"run"}) {
		t.Fatalf("bare LaunchArgs = %v", got)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	alive, pid, err := daemonctl.ProcessInfo(cfg.SocketPath())
	if err != nil || alive || pid != 0 {
		t.Fatalf("ProcessInfo = %v, %d, %v", alive, pid, err)
	}
}

func TestForceKillRefusesUnknownOrSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "autopost.pid")
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
	if err := os.WriteFile(pidPath, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.Times = []string{"09:00", "21:00"}
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewVideo(t, cfg, store, "a.mp4", "first")
	testsupport.NewVideo(t, cfg, store, "b.mp4", "second")

	resp, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if resp.Running {
		t.Fatal("offline snapshot must not report running")
	}
	if resp.QueueStats["pending"] != 2 {
		t.Fatalf("expected 2 pending, got %v", resp.QueueStats)
	}
	if len(resp.Slots) != 2 || resp.Slots[0].Slot != "09:00" {
		t.Fatalf("unexpected slots %+v", resp.Slots)
	}
	if resp.Timezone != "UTC" || resp.LockPath != cfg.LockPath() {
		t.Fatalf("unexpected paths/timezone %+v", resp)
	}
	if len(resp.Checks) == 0 {
		t.Fatal("expected preflight checks in offline snapshot")
	}

	if _, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), nil); err == nil {
		t.Fatal("expected error without config")
	}
}
