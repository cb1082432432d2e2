package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"autopost/internal/browser"
	"autopost/internal/config"
	"autopost/internal/daemonrun"
	"autopost/internal/ipc"
	"autopost/internal/logging"
	"autopost/internal/queue"
	"autopost/internal/queueaccess"
)

// localProvider overrides the browser used by in-process dispatch and session
// checks. Nil selects playwright.
var localProvider browser.Provider

type commandContext struct {
	socketFlag *string
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil {
		if socket := strings.TrimSpace(*c.socketFlag); socket != "" {
			return socket
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	return defaultSocketPath()
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

// optionalClient dials the daemon, returning a nil client without error when
// no daemon is listening.
func (c *commandContext) optionalClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		if daemonNotRunning(err) {
			return nil, nil
		}
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

// withQueue hands fn the daemon-backed queue when it answers and the local
// database otherwise.
func (c *commandContext) withQueue(fn func(queueaccess.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	session, err := queueaccess.OpenWithFallback(queueaccess.Opener{
		Dial:      func() (*ipc.Client, error) { return ipc.Dial(c.socketPath()) },
		OpenStore: func() (*queue.Store, error) { return queue.Open(cfg) },
		Wrap: func(store *queue.Store) queueaccess.Access {
			return queueaccess.NewStoreAccess(cfg, store, logging.NewNop())
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}

// withLocalRuntime assembles the full publishing stack in this process. The
// daemon lock is held for the duration of fn.
func (c *commandContext) withLocalRuntime(ctx context.Context, fn func(context.Context, *daemonrun.Runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	rt, err := daemonrun.Assemble(cfg, store, logger, localProvider, "")
	if err != nil {
		_ = store.Close()
		return err
	}
	defer rt.Daemon.Close()
	return rt.Daemon.RunLocked(func() error {
		return fn(ctx, rt)
	})
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `autopost start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func defaultSocketPath() string {
	cfg := config.Default()
	if expanded, err := config.ExpandPath(cfg.Paths.DataDir); err == nil {
		cfg.Paths.DataDir = expanded
	}
	return cfg.SocketPath()
}

func daemonNotRunning(err error) bool {
	return errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) || os.IsNotExist(err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
