package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autopost/internal/browser"
	"autopost/internal/daemonctl"
	"autopost/internal/daemonrun"
	"autopost/internal/ipc"
	"autopost/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				SocketPath:  ctx.socketPath(),
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&development, "dev", false, "Development logging (source locations)")
	return cmd
}

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the autopost daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx, startLogLevel),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				fmt.Fprintln(stdout, result.Message)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override logging.level for the daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the autopost daemon after any in-flight dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the autopost daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx, restartLogLevel),
				10*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}
			if result.WasRunning {
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Override logging.level for the daemon")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler, queue, and system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			resp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Scheduler", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range schedulerLines(resp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Session", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, cookieLine(cfg.Paths.CookiesPath, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("System Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range resp.Checks {
				fmt.Fprintln(stdout, renderStatusLine(check.Name, statusKindFromCheck(check), check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildQueueStatusRows(resp.QueueStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func schedulerLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, len(resp.Slots)+4)
	switch {
	case resp.Running:
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize))
	case resp.PID > 0:
		lines = append(lines, renderStatusLine("Daemon", statusWarn, fmt.Sprintf("Stopped (pid %d, run `autopost start`)", resp.PID), colorize))
	default:
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running (run `autopost start`)", colorize))
	}
	if resp.Busy {
		lines = append(lines, renderStatusLine("Dispatch lock", statusInfo, "Held (upload in progress)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Dispatch lock", statusOK, "Free", colorize))
	}
	lines = append(lines, renderStatusLine("Retry budget", statusInfo, fmt.Sprintf("%d (timezone %s)", resp.MaxRetry, resp.Timezone), colorize))
	for _, slot := range resp.Slots {
		lines = append(lines, renderStatusLine("Slot "+slot.Slot, statusInfo, "next "+slot.Next.Format("Mon 2006-01-02 15:04 MST"), colorize))
	}
	if report := resp.LastReport; report != nil {
		detail := string(report.Outcome)
		if report.Filename != "" {
			detail += " " + report.Filename
		}
		if msg := strings.TrimSpace(report.Message); msg != "" {
			detail += ": " + msg
		}
		lines = append(lines, renderStatusLine("Last dispatch", statusInfo, detail, colorize))
	}
	return lines
}

func cookieLine(path string, colorize bool) string {
	age, ok := browser.CookieFileAge(path, time.Now())
	if !ok {
		return renderStatusLine("Cookie backup", statusWarn, "None saved yet ("+preflight.DisplayPath(path)+")", colorize)
	}
	days := int(age.Hours() / 24)
	detail := fmt.Sprintf("%d day(s) old", days)
	if age > preflight.CookieMaxAge {
		return renderStatusLine("Cookie backup", statusWarn, detail+"; refresh the login session", colorize)
	}
	return renderStatusLine("Cookie backup", statusOK, detail, colorize)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		SocketPath: strings.TrimSpace(deref(ctx.socketFlag)),
		ConfigPath: ctx.configPath(),
		LogLevel:   logLevel,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
