package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"mytvlog/internal/api"
)

func newProgramsCommand(ctx *commandContext) *cobra.Command {
	var (
		from    string
		to      string
		name    string
		page    int
		size    int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "programs",
		Short: "List broadcast programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			query := url.Values{}
			if from != "" {
				query.Set("from", from)
			}
			if to != "" {
				query.Set("to", to)
			}
			if name != "" {
				query.Set("name", name)
			}
			if page > 0 {
				query.Set("page", strconv.Itoa(page))
			}
			if size > 0 {
				query.Set("size", strconv.Itoa(size))
			}

			var programs []api.ProgramPayload
			if err := client.get(cmd.Context(), "/api/programs", query, &programs); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, programs)
			}
			if len(programs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No programs")
				return nil
			}

			rows := make([][]string, 0, len(programs))
			for _, p := range programs {
				rows = append(rows, []string{
					strconv.FormatInt(p.ID, 10),
					p.Name,
					p.StartTime,
					fmt.Sprintf("%dm", p.Duration/60),
					strconv.FormatInt(p.ServiceID, 10),
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Start", "Duration", "Service"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start time lower bound (date or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "Start time upper bound (date or RFC 3339)")
	cmd.Flags().StringVar(&name, "name", "", "Filter by name (width-insensitive substring)")
	cmd.Flags().IntVar(&page, "page", 0, "Result page")
	cmd.Flags().IntVar(&size, "size", 0, "Page size")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newDigestionsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "digestions",
		Short: "List programs still waiting to be watched",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var digestions []api.DigestionPayload
			if err := client.get(cmd.Context(), "/api/digestions", nil, &digestions); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, digestions)
			}
			if len(digestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing left to watch")
				return nil
			}

			rows := make([][]string, 0, len(digestions))
			for _, d := range digestions {
				rows = append(rows, []string{
					strconv.FormatInt(d.ProgramID, 10),
					d.Name,
					d.StartTime,
					fmt.Sprintf("%dm", d.Duration/60),
					strconv.Itoa(len(d.ViewedTimes)),
				})
			}
			table := renderTable(
				[]string{"Program", "Name", "Start", "Duration", "Views"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
