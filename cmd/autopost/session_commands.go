package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"autopost/internal/daemonrun"
	"autopost/internal/ipc"
	"autopost/internal/scheduler"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the saved login session",
	}
	sessionCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Open the upload page and verify the saved login",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := checkSession(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if err := writeJSON(cmd, resp); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), sessionMessage(resp))
			}
			if !resp.OK && !resp.Busy {
				return errors.New("session check failed")
			}
			return nil
		},
	})
	return sessionCmd
}

func checkSession(cmdCtx context.Context, ctx *commandContext) (*ipc.SessionCheckResponse, error) {
	client, err := ctx.optionalClient()
	if err != nil {
		return nil, err
	}
	if client != nil {
		defer client.Close()
		return client.SessionCheck()
	}
	resp := &ipc.SessionCheckResponse{}
	err = ctx.withLocalRuntime(cmdCtx, func(runCtx context.Context, rt *daemonrun.Runtime) error {
		checkErr := rt.Daemon.CheckSession(runCtx)
		switch {
		case checkErr == nil:
			resp.OK = true
			resp.Message = "session valid"
		case errors.Is(checkErr, scheduler.ErrBusy):
			resp.Busy = true
			resp.Message = "a dispatch cycle is using the browser; try again later"
		default:
			resp.Message = checkErr.Error()
		}
		return nil
	})
	return resp, err
}

func sessionMessage(resp *ipc.SessionCheckResponse) string {
	switch {
	case resp.OK:
		return "Session valid: the upload page opened without a login prompt"
	case resp.Busy:
		return "Session check skipped: " + resp.Message
	default:
		return "Session invalid: " + resp.Message
	}
}
