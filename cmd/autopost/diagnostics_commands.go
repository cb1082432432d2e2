package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"autopost/internal/daemon"
	"autopost/internal/diagnostics"
	"autopost/internal/ipc"
	"autopost/internal/notifications"
)

func newDiagnosticsCommand(ctx *commandContext) *cobra.Command {
	diagCmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Inspect checkpoint screenshots",
	}
	diagCmd.AddCommand(newDiagnosticsListCommand(ctx))
	diagCmd.AddCommand(newDiagnosticsSendCommand(ctx))
	return diagCmd
}

func newDiagnosticsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent screenshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			shots, err := diagnostics.List(cfg.Paths.DiagnosticsDir)
			if err != nil {
				return err
			}
			if limit > 0 && len(shots) > limit {
				shots = shots[:limit]
			}
			if ctx.JSONMode() {
				if shots == nil {
					shots = []diagnostics.Shot{}
				}
				return writeJSON(cmd, shots)
			}
			if len(shots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No screenshots in "+cfg.Paths.DiagnosticsDir)
				return nil
			}
			rows := make([][]string, 0, len(shots))
			for _, shot := range shots {
				rows = append(rows, []string{
					shot.Taken.Format("2006-01-02 15:04:05"),
					shot.Attempt,
					strconv.Itoa(shot.Seq),
					shot.Label,
					filepath.Base(shot.Path),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Taken", "Attempt", "Seq", "Label", "File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum screenshots to list (0 for all)")
	return cmd
}

func newDiagnosticsSendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send the latest attempt's screenshots to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendDiagnostics(cmd, ctx)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Shots) == 0 {
				fmt.Fprintln(out, "No screenshots to send")
				return nil
			}
			fmt.Fprintf(out, "Sent %d of %d screenshot(s) from attempt %s\n", resp.Sent, len(resp.Shots), resp.Shots[0].Attempt)
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			return nil
		},
	}
}

func sendDiagnostics(cmd *cobra.Command, ctx *commandContext) (*ipc.DiagnosticsSendResponse, error) {
	client, err := ctx.optionalClient()
	if err != nil {
		return nil, err
	}
	if client != nil {
		defer client.Close()
		return client.DiagnosticsSend()
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	shots, sent, sendErr := daemon.SendLatestDiagnostics(cmd.Context(), cfg, notifications.NewService(cfg))
	resp := &ipc.DiagnosticsSendResponse{Shots: shots, Sent: sent}
	if sendErr != nil {
		resp.Error = sendErr.Error()
	}
	return resp, nil
}
