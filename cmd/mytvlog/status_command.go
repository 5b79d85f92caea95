package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mytvlog/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var status api.DaemonStatus
			if err := client.get(cmd.Context(), "/api/status", nil, &status); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			state := colorize("stopped", ansiRed, color)
			if status.Running {
				state = colorize("running", ansiGreen, color)
			}
			fmt.Fprintf(out, "Daemon: %s (pid %d)\n", state, status.PID)
			fmt.Fprintf(out, "Store:  %s", status.Driver)
			if status.DatabasePath != "" {
				fmt.Fprintf(out, " (%s)", status.DatabasePath)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Lock:   %s\n", status.LockFilePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}
