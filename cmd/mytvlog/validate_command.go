package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"mytvlog/internal/api"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool
	var roots []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check stored file paths against the share and repair them",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var results []api.ValidatePayload
			req := api.ValidateRequest{DryRun: dryRun, FindFilePathRoots: roots}
			if err := client.send(cmd.Context(), http.MethodPost, "/api/recordings/validate", req, &results); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No recordings needed repair")
				return nil
			}
			color := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				state := colorize("missing", ansiRed, color)
				if res.Exists {
					state = colorize("found", ansiGreen, color)
				}
				rows = append(rows, []string{
					strconv.FormatInt(res.RecordingID, 10),
					res.FilePath,
					state,
					stringCell(res.FoundPath),
					humanSize(res.FileSize),
				})
			}
			table := renderTable(
				[]string{"Recording", "Stored Path", "State", "Found Path", "Size"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			)
			fmt.Fprintln(out, table)
			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was written")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Probe without writing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "Extra share folders to search for moved files (repeatable)")
	return cmd
}
