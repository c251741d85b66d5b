// ABOUTME: CLI commands for exporting and restoring tracker data.
// ABOUTME: Supports JSON, YAML, Markdown and Parquet export formats.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export tracker data",
	Long: `Export tracker data in various formats.

FORMATS:

  json       Full JSON export of every user (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown tables for the current user
  parquet    Daily rows with dose counts as a Parquet file (needs --output)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include data since this date (markdown only)

EXAMPLES:

  pepmetrics export json -o backup.json
  pepmetrics export markdown --since 2024-01-01
  pepmetrics export parquet -o daily.parquet`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown", "parquet"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = db.ExportJSON()
		case "yaml":
			data, err = db.ExportYAML()
		case "markdown", "md":
			var since *time.Time
			if exportSince != "" {
				t, perr := time.Parse(models.DateLayout, exportSince)
				if perr != nil {
					return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
				}
				since = &t
			}
			var md string
			md, err = db.ExportMarkdown(svc.UserID(), since)
			data = []byte(md)
		case "parquet":
			if exportOutput == "" {
				return fmt.Errorf("parquet export needs --output")
			}
			data, err = db.ExportParquet(svc.UserID())
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, markdown or parquet)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Exported to %s", exportOutput))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}

		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore tracker data from a JSON backup",
	Long: `Restore data from a file written by 'pepmetrics export json'.

Daily rows and activities are merged. Protocols that already exist cause an
error, so restore into an empty database.

EXAMPLES:

  pepmetrics restore backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		if err := db.ImportJSON(data); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Restored from %s", filename))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include data since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
}
