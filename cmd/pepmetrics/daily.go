// ABOUTME: CLI commands for listing imported daily biometrics and activities.
// ABOUTME: Prints one line per date or per workout.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dailyFrom string
	dailyTo   string
	dailyDays int
	activityN int
)

var dailyCmd = &cobra.Command{
	Use:     "daily",
	Aliases: []string{"days", "d"},
	Short:   "List daily biometrics",
	Long: `List merged daily biometric rows, oldest first.

OUTPUT FORMAT:

  DATE  SLEEP(score/hours)  HRV  RHR  STRESS  BATTERY(low-high)  STEPS

  A "-" means no imported file reported that value for the day.

EXAMPLES:

  pepmetrics daily                                  # Last 14 days
  pepmetrics daily --days 30
  pepmetrics daily --from 2024-03-01 --to 2024-03-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := svc.ParseDay(dailyFrom)
		if err != nil {
			return err
		}
		to, err := svc.ParseDay(dailyTo)
		if err != nil {
			return err
		}
		if to.IsZero() {
			to = svc.Today()
		}
		if from.IsZero() {
			from = to.AddDate(0, 0, -(dailyDays - 1))
		}

		days, err := db.ListDailySummaries(svc.UserID(), from, to)
		if err != nil {
			return fmt.Errorf("failed to list daily summaries: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(days) == 0 {
			fmt.Fprintln(out, "No daily data found. Import a Garmin export first.")
			return nil
		}

		fmt.Fprintln(out, faint.Sprintf("%-10s  %-11s  %-5s  %-4s  %-6s  %-9s  %s",
			"DATE", "SLEEP", "HRV", "RHR", "STRESS", "BATTERY", "STEPS"))
		for _, d := range days {
			battery := "-"
			if d.BodyBatteryLow != nil || d.BodyBatteryHigh != nil {
				battery = optFloat(d.BodyBatteryLow, "%.0f") + "-" + optFloat(d.BodyBatteryHigh, "%.0f")
			}
			fmt.Fprintf(out, "%s  %s  %s  %s  %s  %s  %s\n",
				d.Date,
				padRight(optFloat(d.SleepScore, "%.0f")+"/"+optFloat(d.SleepDurationHours, "%.1fh"), 11),
				padRight(optFloat(d.HRVAvg, "%.0f"), 5),
				padRight(optFloat(d.RestingHR, "%.0f"), 4),
				padRight(optFloat(d.StressAvg, "%.0f"), 6),
				padRight(battery, 9),
				optInt(d.Steps))
		}
		return nil
	},
}

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"act"},
	Short:   "List imported activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		activities, err := db.ListActivities(svc.UserID(), activityN)
		if err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(activities) == 0 {
			fmt.Fprintln(out, "No activities found.")
			return nil
		}

		for _, a := range activities {
			name := ""
			if a.Name != nil && *a.Name != "" {
				name = faint.Sprintf(" (%s)", truncate(*a.Name, 30))
			}
			duration := "-"
			if a.DurationSeconds != nil {
				duration = (time.Duration(*a.DurationSeconds) * time.Second).String()
			}
			distance := "-"
			if a.DistanceMeters != nil {
				distance = fmt.Sprintf("%.2f km", *a.DistanceMeters/1000)
			}
			fmt.Fprintf(out, "%s %s %s %s %s%s\n",
				faint.Sprint(a.StartTime.Format("2006-01-02 15:04")),
				color.CyanString(padRight(a.ActivityType, 12)),
				padRight(duration, 9),
				padRight(distance, 10),
				optInt(a.AvgHeartRate),
				name)
		}
		return nil
	},
}

func init() {
	dailyCmd.Flags().StringVar(&dailyFrom, "from", "", "start date (YYYY-MM-DD)")
	dailyCmd.Flags().StringVar(&dailyTo, "to", "", "end date (YYYY-MM-DD, default today)")
	dailyCmd.Flags().IntVar(&dailyDays, "days", 14, "days to show when --from is not set")
	activitiesCmd.Flags().IntVarP(&activityN, "limit", "n", 20, "max number of activities")
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(activitiesCmd)
}
