package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"autopost/internal/daemon"
	"autopost/internal/ipc"
	"autopost/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test Telegram notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendTestNotification(cmd, ctx)
			if err != nil {
				if resp != nil && resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				}
				return err
			}
			if resp == nil {
				return errors.New("missing notification response")
			}
			switch {
			case resp.Sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			case resp.Message != "":
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent: "+resp.Message)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}

func sendTestNotification(cmd *cobra.Command, ctx *commandContext) (*ipc.TestNotificationResponse, error) {
	client, err := ctx.optionalClient()
	if err != nil {
		return nil, err
	}
	if client != nil {
		defer client.Close()
		return client.TestNotification()
	}
	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, cfgErr
	}
	sent, message, sendErr := daemon.SendTestNotification(cmd.Context(), notifications.NewService(cfg))
	return &ipc.TestNotificationResponse{Sent: sent, Message: message}, sendErr
}
