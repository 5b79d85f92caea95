package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"mytvlog/internal/api"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	var (
		programID  int64
		from       string
		to         string
		watched    bool
		deleted    bool
		fileFolder string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			query := url.Values{}
			if programID > 0 {
				query.Set("program_id", strconv.FormatInt(programID, 10))
			}
			if from != "" {
				query.Set("from", from)
			}
			if to != "" {
				query.Set("to", to)
			}
			if watched {
				query.Set("watched", "true")
			}
			if deleted {
				query.Set("deleted", "true")
			}
			if fileFolder != "" {
				query.Set("file_folder", fileFolder)
			}

			var recordings []api.RecordingPayload
			if err := client.get(cmd.Context(), "/api/recordings", query, &recordings); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, recordings)
			}
			if len(recordings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recordings")
				return nil
			}

			rows := make([][]string, 0, len(recordings))
			for _, rec := range recordings {
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.Program.Name,
					rec.Program.StartTime,
					stringCell(rec.FileFolder),
					humanSize(rec.FileSize),
					timeCell(rec.WatchedAt),
					timeCell(rec.DeletedAt),
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Start", "Folder", "Size", "Watched", "Deleted"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().Int64Var(&programID, "program-id", 0, "Filter by program id")
	cmd.Flags().StringVar(&from, "from", "", "Start time lower bound (date or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "Start time upper bound (date or RFC 3339)")
	cmd.Flags().BoolVar(&watched, "watched", false, "Include watched recordings")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include deleted recordings")
	cmd.Flags().StringVar(&fileFolder, "folder", "", "Filter by share folder")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
