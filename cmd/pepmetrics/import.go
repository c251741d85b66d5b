// ABOUTME: CLI command for importing Garmin export files.
// ABOUTME: Accepts zip archives, activity CSVs, FIT files and JSON exports.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/importer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	importDays int
	importKm   bool
	importJSON bool
)

var importCmd = &cobra.Command{
	Use:     "import <file>...",
	Aliases: []string{"i"},
	Short:   "Import Garmin export files",
	Long: `Import biometrics and activities from Garmin Connect exports.

SUPPORTED FILES:

  .zip    Full "Export Your Data" archive. Only sleep, HRV, stress, body
          battery, daily summary, health status and activity files from the
          last --days days (default 90) are read.
  .csv    Activities list exported from Garmin Connect
  .fit    A single activity file from the device
  .json   A single file pulled out of an export archive

Rows for the same date are merged, so importing the same export twice is
safe and newer files fill in fields older ones left empty.

EXAMPLES:

  pepmetrics import ~/Downloads/garmin_export.zip
  pepmetrics import Activities.csv --km
  pepmetrics import export.zip --days 90`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		im := importer.New(db, importOptions())

		var failed int
		for _, path := range args {
			res, err := im.ImportPath(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			if importJSON {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				printImportResult(cmd, res)
			}
			if !res.Success {
				failed++
			}
		}
		if failed == len(args) {
			return fmt.Errorf("no data imported")
		}
		return nil
	},
}

// importOptions builds importer options from config and flags.
func importOptions() importer.Options {
	csv := garmin.DefaultCSVOptions()
	csv.AssumeMiles = cfg.GetAssumeMiles() && !importKm

	days := cfg.GetTargetDays()
	if importDays > 0 {
		days = importDays
	}
	return importer.Options{
		UserID:     cfg.GetUserID(),
		TargetDays: days,
		CSV:        csv,
		Logger:     logger,
	}
}

func printImportResult(cmd *cobra.Command, res *importer.Result) {
	out := cmd.OutOrStdout()
	if !res.Success {
		fmt.Fprintln(out, color.YellowString("⚠ %s: %s", res.FileName, res.Message))
	} else {
		fmt.Fprintln(out, color.GreenString("✓ %s: %s", res.FileName, res.Message))
	}

	if res.Kind == importer.KindZip {
		fmt.Fprintf(out, "  %s scanned %d, parsed %d, skipped %d\n",
			faint.Sprint("files"), res.FilesScanned, res.FilesParsed, res.FilesSkipped)
		if len(res.DataTypes) > 0 {
			types := make([]string, len(res.DataTypes))
			for i, t := range res.DataTypes {
				types[i] = string(t)
			}
			fmt.Fprintf(out, "  %s %s\n", faint.Sprint("types"), strings.Join(types, ", "))
		}
	}
	if res.Success {
		fmt.Fprintf(out, "  %s %d days, %d new / %d updated activities\n",
			faint.Sprint("saved"), res.DaysSaved, res.ActivitiesInserted, res.ActivitiesUpdated)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %s %s\n", color.RedString("!"), e)
	}
	if res.ErrorCount > len(res.Errors) {
		fmt.Fprintf(out, "  %s\n", faint.Sprintf("... and %d more", res.ErrorCount-len(res.Errors)))
	}
}

func init() {
	importCmd.Flags().IntVar(&importDays, "days", 0, "only import archive data from the last N days (default 90)")
	importCmd.Flags().BoolVar(&importKm, "km", false, "treat unitless CSV distances as kilometers")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the import result as JSON")
	rootCmd.AddCommand(importCmd)
}
