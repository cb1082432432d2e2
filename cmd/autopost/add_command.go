package main

import (
	"fmt"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"autopost/internal/daemon"
	"autopost/internal/queueaccess"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var caption string
	var copyFile bool
	var submittedBy string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Queue a video file for publishing",
		Long: "Queue a video file for publishing. Supported extensions: .mp4 .mov .avi .mkv .webm.\n" +
			"With --copy the file is copied into the videos directory under a timestamped name first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if !daemon.SupportedExtension(absPath) {
				return fmt.Errorf("unsupported file extension %q", filepath.Ext(absPath))
			}
			submitter := strings.TrimSpace(submittedBy)
			if submitter == "" {
				submitter = currentUsername()
			}
			req := daemon.AddRequest{
				Path:        absPath,
				Caption:     caption,
				Copy:        copyFile,
				SubmittedBy: submitter,
			}
			return ctx.withQueue(func(session queueaccess.Session) error {
				item, err := session.Access.Add(cmd.Context(), req)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", item.Filename, item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Caption to publish with the video (default: publish.default_caption)")
	cmd.Flags().BoolVar(&copyFile, "copy", false, "Copy the file into the videos directory before queueing")
	cmd.Flags().StringVar(&submittedBy, "submitted-by", "", "Submitter recorded on the item (default: current user)")
	return cmd
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
