package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autopost/internal/browser/browsertest"
	"autopost/internal/config"
	"autopost/internal/daemon"
	"autopost/internal/ipc"
	"autopost/internal/logging"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
	"autopost/internal/testsupport"
	"autopost/internal/uploader"
)

type okPublisher struct{}

func (okPublisher) Publish(context.Context, uploader.Request) uploader.Result {
	return uploader.Result{Success: true, Message: "posted"}
}

type validSession struct{}

func (validSession) CheckSession(context.Context) error { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

// setupCLITestEnv writes a config file and, when withDaemon is set, serves a
// daemon on a short socket path.
func setupCLITestEnv(t *testing.T, withDaemon bool) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", base)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_RECIPIENTS", "")

	configPath := filepath.Join(base, "autopost.toml")
	writeTestConfig(t, configPath, cfg)

	socketDir, err := os.MkdirTemp("", "ap")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(socketDir) })

	env := &cliTestEnv{
		cfg:        cfg,
		socketPath: filepath.Join(socketDir, "cli.sock"),
		configPath: configPath,
	}
	env.store = testsupport.MustOpenStore(t, cfg)
	if !withDaemon {
		return env
	}

	logger := logging.NewNop()
	sched, err := scheduler.New(cfg, env.store, okPublisher{}, nil, logger)
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	d, err := daemon.New(cfg, env.store, logger, sched, validSession{}, nil, cfg.CurrentLogPath())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	env.daemon = d

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, env.socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC-backed CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.socketPath, e.configPath)
	return out, err
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error %q to contain %q", err, substr)
	}
}

func useLocalProvider(t *testing.T, failWith string) {
	t.Helper()
	provider := browsertest.NewProvider(browsertest.NewPage())
	provider.FailWith(errors.New(failWith))
	prev := localProvider
	localProvider = provider
	t.Cleanup(func() { localProvider = prev })
}
