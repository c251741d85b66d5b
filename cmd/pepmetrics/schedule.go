// ABOUTME: CLI commands for the dose schedule.
// ABOUTME: Shows today's due doses, overdue protocols and a calendar range.
package main

import (
	"fmt"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	calendarFrom string
	calendarDays int
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"s"},
	Short:   "Show the dose schedule",
}

var scheduleDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List doses still due today",
	RunE: func(cmd *cobra.Command, args []string) error {
		due, err := svc.DueToday()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(due) == 0 {
			fmt.Fprintln(out, color.GreenString("✓ Nothing due today"))
			return nil
		}
		for _, d := range due {
			fmt.Fprintf(out, "%s %s %s #%d\n",
				faint.Sprint(shortID(d.Protocol.ID)),
				padRight(d.Protocol.PeptideName, 14),
				padRight(d.Protocol.Dose, 9),
				d.DoseNumber)
		}
		return nil
	},
}

var scheduleOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List protocols whose next dose has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		overdue, err := svc.Overdue()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(overdue) == 0 {
			fmt.Fprintln(out, color.GreenString("✓ Nothing overdue"))
			return nil
		}
		for _, p := range overdue {
			fmt.Fprintf(out, "%s %s %s\n",
				faint.Sprint(shortID(p.ID)),
				color.RedString(padRight(p.PeptideName, 14)),
				p.ScheduleSummary())
		}
		return nil
	},
}

var scheduleCalendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Show scheduled doses and their status over a range of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := svc.ParseDay(calendarFrom)
		if err != nil {
			return err
		}
		if from.IsZero() {
			from = svc.Today()
		}
		if calendarDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		to := from.AddDate(0, 0, calendarDays-1)

		slots, err := svc.Calendar(from, to)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(slots) == 0 {
			fmt.Fprintln(out, "No doses scheduled.")
			return nil
		}

		lastDate := ""
		for _, s := range slots {
			if s.Date != lastDate {
				fmt.Fprintln(out, color.New(color.Bold).Sprint(s.Date))
				lastDate = s.Date
			}
			fmt.Fprintf(out, "  %s %s #%d %s\n",
				padRight(s.PeptideName, 14),
				padRight(s.Dose, 9),
				s.DoseNumber,
				colorStatus(s.Status))
		}
		return nil
	},
}

func colorStatus(s models.DoseStatus) string {
	switch s {
	case models.DoseTaken:
		return color.GreenString(string(s))
	case models.DoseSkipped:
		return color.YellowString(string(s))
	case models.DoseOverdue:
		return color.RedString(string(s))
	}
	return faint.Sprint(string(s))
}

func init() {
	scheduleCalendarCmd.Flags().StringVar(&calendarFrom, "from", "", "first day (default today)")
	scheduleCalendarCmd.Flags().IntVar(&calendarDays, "days", 7, "number of days to show")

	scheduleCmd.AddCommand(scheduleDueCmd, scheduleOverdueCmd, scheduleCalendarCmd)
	rootCmd.AddCommand(scheduleCmd)
}
