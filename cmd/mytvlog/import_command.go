package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mytvlog/internal/api"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import recordings into the catalog",
	}

	importCmd.AddCommand(newImportJSONCommand(ctx))
	importCmd.AddCommand(newImportEDCBCommand(ctx))

	return importCmd
}

func newImportJSONCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "json <file>",
		Short: "Import recordings described in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var items []api.ImportItem
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			var res api.ImportResponse
			req := api.ImportJSONRequest{DryRun: dryRun, Imports: items}
			if err := client.send(cmd.Context(), http.MethodPost, "/api/recordings/import-json", req, &res); err != nil {
				return err
			}
			return printImportResult(cmd, res, dryRun, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without writing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newImportEDCBCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool
	var smbServer string

	cmd := &cobra.Command{
		Use:   "edcb",
		Short: "Import the EDCB recorder's finished recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if smbServer == "" {
				if cfg, err := ctx.ensureConfig(); err == nil {
					smbServer = cfg.SMB.Server
				}
			}

			var res api.ImportResponse
			req := api.ImportEDCBRequest{DryRun: dryRun, SMBServer: smbServer}
			if err := client.send(cmd.Context(), http.MethodPost, "/api/recordings/import-edcb", req, &res); err != nil {
				return err
			}
			if res.CountEDCBRecordings != nil && !jsonOut {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorder listed %d recordings\n", *res.CountEDCBRecordings)
			}
			return printImportResult(cmd, res, dryRun, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without writing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringVar(&smbServer, "smb-server", "", "Share server to prefix recorder paths with")
	return cmd
}

func printImportResult(cmd *cobra.Command, res api.ImportResponse, dryRun, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, res)
	}
	out := cmd.OutOrStdout()
	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Fprintf(out, "%s %d programs and %d recordings\n", verb, res.CountPrograms, res.CountRecordings)

	if len(res.PreviewImports) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(res.PreviewImports))
	for _, row := range res.PreviewImports {
		program := ""
		switch {
		case row.ExistingProgramID != nil:
			program = "#" + strconv.FormatInt(*row.ExistingProgramID, 10)
		case row.TempProgramID != nil:
			program = "new " + strconv.FormatInt(*row.TempProgramID, 10)
		}
		rows = append(rows, []string{
			program,
			row.Name,
			row.StartTime,
			row.FilePath,
			humanSize(row.FileSize),
		})
	}
	table := renderTable(
		[]string{"Program", "Name", "Start", "File", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
	fmt.Fprintln(out, table)
	return nil
}
