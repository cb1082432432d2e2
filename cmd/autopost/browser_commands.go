package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopost/internal/browser"
)

func newBrowserCommand() *cobra.Command {
	browserCmd := &cobra.Command{
		Use:         "browser",
		Short:       "Manage the automation browser",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	browserCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Download the playwright driver and chromium",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Installing playwright driver and chromium...")
			if err := browser.Install(); err != nil {
				return fmt.Errorf("install browser: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Browser installed")
			return nil
		},
	})
	return browserCmd
}
