package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autopost/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var itemID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if client, err := ctx.dialClient(); err == nil {
				if status, statusErr := client.Status(); statusErr == nil {
					path = strings.TrimSpace(status.LogPath)
				}
				_ = client.Close()
			}
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.CurrentLogPath()
			}

			opts := logs.TailOptions{Lines: lines, Follow: follow}
			if itemID > 0 {
				opts.Match = logs.ItemFilter(itemID)
			}
			out := cmd.OutOrStdout()
			return logs.Tail(cmd.Context(), path, opts, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().Int64Var(&itemID, "item", 0, "Only show lines for this queue item id")
	return cmd
}
