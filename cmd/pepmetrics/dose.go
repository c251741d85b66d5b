// ABOUTME: CLI commands for logging, skipping and undoing doses.
// ABOUTME: Doses are addressed by protocol ID prefix plus date and dose number.
package main

import (
	"fmt"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/tracker"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	doseDate   string
	doseNumber int
	doseNotes  string
	doseFrom   string
	doseTo     string
)

var doseCmd = &cobra.Command{
	Use:   "dose",
	Short: "Log doses",
	Long: `Record what happened to a scheduled dose.

COMMANDS:

  log    Mark a dose as taken
  skip   Mark a dose as skipped (it no longer shows as due)
  undo   Remove a logged dose so it is due again
  list   Show logged doses

The protocol is the ID prefix shown by 'pepmetrics protocol list'. Dates
default to today and also accept "yesterday".`,
}

func doseCommand(use, short string, status models.DoseStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <protocol>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := svc.ParseDay(doseDate)
			if err != nil {
				return err
			}
			dl, err := svc.RecordDose(tracker.DoseRequest{
				Protocol:   args[0],
				Day:        day,
				DoseNumber: doseNumber,
				Status:     status,
				Notes:      doseNotes,
			})
			if err != nil {
				return fmt.Errorf("failed to log dose: %w", err)
			}

			msg := fmt.Sprintf("%s %s dose #%d on %s", status, dl.PeptideName, dl.DoseNumber, dl.Date())
			if status == models.DoseTaken {
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %s", msg))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("- %s", msg))
			}
			return nil
		},
	}
}

var doseUndoCmd = &cobra.Command{
	Use:   "undo <protocol>",
	Short: "Remove a logged dose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := svc.ParseDay(doseDate)
		if err != nil {
			return err
		}
		if day.IsZero() {
			day = svc.Today()
		}
		p, err := svc.UndoDose(args[0], day, doseNumber)
		if err != nil {
			return fmt.Errorf("failed to undo dose: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("↺ Removed %s dose on %s", p.PeptideName, day.Format(models.DateLayout)))
		return nil
	},
}

var doseListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List logged doses",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := svc.ParseDay(doseFrom)
		if err != nil {
			return err
		}
		to, err := svc.ParseDay(doseTo)
		if err != nil {
			return err
		}
		if from.IsZero() {
			from = svc.Today().AddDate(0, 0, -13)
		}

		logs, err := db.ListDoseLogs(svc.UserID(), from, to)
		if err != nil {
			return fmt.Errorf("failed to list doses: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(logs) == 0 {
			fmt.Fprintln(out, "No doses logged.")
			return nil
		}

		for _, l := range logs {
			status := color.GreenString(padRight(string(l.Status), 7))
			if l.Status == models.DoseSkipped {
				status = color.YellowString(padRight(string(l.Status), 7))
			}
			notes := ""
			if l.Notes != nil && *l.Notes != "" {
				notes = faint.Sprintf(" (%s)", truncate(*l.Notes, 30))
			}
			fmt.Fprintf(out, "%s %s %s #%d %s%s\n",
				l.Date(),
				padRight(l.PeptideName, 14),
				padRight(l.Dose, 9),
				l.DoseNumber,
				status,
				notes)
		}
		return nil
	},
}

func init() {
	logCmd := doseCommand("log", "Mark a dose as taken", models.DoseTaken)
	skipCmd := doseCommand("skip", "Mark a dose as skipped", models.DoseSkipped)
	for _, c := range []*cobra.Command{logCmd, skipCmd, doseUndoCmd} {
		c.Flags().StringVar(&doseDate, "date", "", "scheduled date (YYYY-MM-DD, default today)")
		c.Flags().IntVarP(&doseNumber, "number", "n", 1, "which of the day's doses")
	}
	logCmd.Flags().StringVar(&doseNotes, "notes", "", "notes (injection site, etc.)")
	skipCmd.Flags().StringVar(&doseNotes, "notes", "", "reason for skipping")
	doseListCmd.Flags().StringVar(&doseFrom, "from", "", "start date (default 14 days ago)")
	doseListCmd.Flags().StringVar(&doseTo, "to", "", "end date")

	doseCmd.AddCommand(logCmd, skipCmd, doseUndoCmd, doseListCmd)
	rootCmd.AddCommand(doseCmd)
}
