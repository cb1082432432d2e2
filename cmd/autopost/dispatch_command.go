package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"autopost/internal/daemonrun"
	"autopost/internal/scheduler"
)

func newDispatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Publish the oldest pending item now",
		Long: "Run one dispatch cycle now. The daemon performs it when running;\n" +
			"otherwise this process drives the browser itself.",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := dispatchNow(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func dispatchNow(cmdCtx context.Context, ctx *commandContext) (scheduler.Report, error) {
	client, err := ctx.optionalClient()
	if err != nil {
		return scheduler.Report{}, err
	}
	if client != nil {
		defer client.Close()
		resp, err := client.Dispatch()
		if err != nil {
			return scheduler.Report{}, err
		}
		return resp.Report, nil
	}
	var report scheduler.Report
	err = ctx.withLocalRuntime(cmdCtx, func(runCtx context.Context, rt *daemonrun.Runtime) error {
		var dispatchErr error
		report, dispatchErr = rt.Daemon.Dispatch(runCtx)
		return dispatchErr
	})
	return report, err
}

func printReport(out io.Writer, report scheduler.Report) {
	switch report.Outcome {
	case scheduler.OutcomeIdle:
		fmt.Fprintln(out, "Queue has no pending items")
	case scheduler.OutcomeSkipped:
		fmt.Fprintln(out, "Another dispatch is in progress; nothing done")
	case scheduler.OutcomePosted:
		if report.Diverted {
			fmt.Fprintf(out, "Posted item #%d (%s); the site redirected without confirming\n", report.ItemID, report.Filename)
			return
		}
		fmt.Fprintf(out, "Posted item #%d (%s)\n", report.ItemID, report.Filename)
	case scheduler.OutcomeRetrying:
		fmt.Fprintf(out, "Item #%d (%s) failed, will retry (attempt %d): %s\n", report.ItemID, report.Filename, report.Retry, report.Message)
	case scheduler.OutcomeFailed:
		fmt.Fprintf(out, "Item #%d (%s) failed permanently: %s\n", report.ItemID, report.Filename, report.Message)
	case scheduler.OutcomeFileMissing:
		fmt.Fprintf(out, "Item #%d (%s) marked failed: %s\n", report.ItemID, report.Filename, report.Message)
	case scheduler.OutcomeInterrupted:
		fmt.Fprintf(out, "Item #%d (%s) interrupted; it stays pending\n", report.ItemID, report.Filename)
	default:
		fmt.Fprintf(out, "Dispatch finished: %s\n", report.Outcome)
	}
}
