// ABOUTME: CLI commands for managing peptide protocols.
// ABOUTME: Supports add, list, pause, resume and delete subcommands.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/schedule"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	protocolName       string
	protocolStart      string
	protocolWeekdays   string
	protocolEvery      int
	protocolCycle      string
	protocolCycleStart string
	protocolPerDay     int
	protocolNotes      string
	protocolActiveOnly bool
)

var protocolCmd = &cobra.Command{
	Use:     "protocol",
	Aliases: []string{"p", "protocols"},
	Short:   "Manage peptide protocols",
	Long: `A protocol is a recurring dosing plan for one peptide.

SCHEDULES:

  daily           Every day (default)
  --weekdays      Specific weekdays, e.g. "mon,thu" or "1,4"
  --every N       Every N days counted from the start date
  --cycle ON/OFF  N days on then M days off, e.g. "5/2"

COMMANDS:

  add      Create a protocol
  list     List protocols with their schedule and next dose
  pause    Stop scheduling doses (history is kept)
  resume   Start scheduling again
  delete   Remove a protocol and its dose history`,
}

var protocolAddCmd = &cobra.Command{
	Use:   "add <peptide> <dose>",
	Short: "Add a protocol",
	Long: `Add a peptide protocol.

Examples:
  pepmetrics protocol add BPC-157 250mcg
  pepmetrics protocol add TB-500 2mg --weekdays mon,thu
  pepmetrics protocol add CJC-1295 100mcg --cycle 5/2 --per-day 2
  pepmetrics protocol add Semax 300mcg --every 3 --start 2024-03-01`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := protocolName
		if name == "" {
			name = args[0]
		}
		p := models.NewProtocol(name, args[0], args[1])
		p.UserID = svc.UserID()

		if protocolStart != "" {
			start, err := svc.ParseDay(protocolStart)
			if err != nil {
				return err
			}
			p.WithStartDate(start)
		}
		if err := applySchedule(p); err != nil {
			return err
		}
		if protocolPerDay > 0 {
			p.DosesPerDay = protocolPerDay
		}
		if protocolNotes != "" {
			p.WithNotes(protocolNotes)
		}

		if err := db.CreateProtocol(p); err != nil {
			return fmt.Errorf("failed to create protocol: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Added %s %s", p.PeptideName, p.Dose))
		fmt.Fprintf(out, "  ID: %s\n", shortID(p.ID))
		fmt.Fprintf(out, "  Schedule: %s from %s\n", p.ScheduleSummary(), p.StartDate.Format(models.DateLayout))
		return nil
	},
}

// applySchedule sets the recurrence from the mutually exclusive schedule flags.
func applySchedule(p *models.Protocol) error {
	set := 0
	for _, on := range []bool{protocolWeekdays != "", protocolEvery > 0, protocolCycle != ""} {
		if on {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("use only one of --weekdays, --every or --cycle")
	}

	switch {
	case protocolWeekdays != "":
		days, err := models.ParseWeekdays(protocolWeekdays)
		if err != nil {
			return err
		}
		p.WithWeekdays(days...)
	case protocolEvery > 0:
		p.WithInterval(protocolEvery)
	case protocolCycle != "":
		on, off, err := parseCycle(protocolCycle)
		if err != nil {
			return err
		}
		var cycleStart = p.StartDate
		if protocolCycleStart != "" {
			cycleStart, err = svc.ParseDay(protocolCycleStart)
			if err != nil {
				return err
			}
		}
		p.WithCycle(on, off, &cycleStart)
	}
	return nil
}

// parseCycle parses "ON/OFF" day counts such as "5/2".
func parseCycle(s string) (int, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cycle %q (use ON/OFF, e.g. 5/2)", s)
	}
	on, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cycle %q (use ON/OFF, e.g. 5/2)", s)
	}
	off, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cycle %q (use ON/OFF, e.g. 5/2)", s)
	}
	return on, off, nil
}

var protocolListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List protocols",
	RunE: func(cmd *cobra.Command, args []string) error {
		protocols, err := db.ListProtocols(svc.UserID(), protocolActiveOnly)
		if err != nil {
			return fmt.Errorf("failed to list protocols: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(protocols) == 0 {
			fmt.Fprintln(out, "No protocols found.")
			return nil
		}

		today := svc.Today()
		for _, p := range protocols {
			status := color.GreenString("active")
			if !p.IsActive() {
				status = color.YellowString("paused")
			}
			next := "-"
			if p.IsActive() {
				if d, ok := schedule.NextDoseDate(p, today); ok {
					next = d.Format(models.DateLayout)
				}
			}
			fmt.Fprintf(out, "%s %s %s %s %s %s\n",
				faint.Sprint(shortID(p.ID)),
				padRight(p.PeptideName, 14),
				padRight(p.Dose, 9),
				padRight(p.ScheduleSummary(), 20),
				status,
				faint.Sprintf("next %s", next))
		}
		return nil
	},
}

func statusCommand(use, short string, status models.ProtocolStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := db.GetProtocol(args[0])
			if err != nil {
				return err
			}
			if err := db.SetProtocolStatus(p.ID.String(), status); err != nil {
				return fmt.Errorf("failed to update protocol: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %s is now %s", p.PeptideName, status))
			return nil
		},
	}
}

var protocolDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a protocol and its dose history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := db.GetProtocol(args[0])
		if err != nil {
			return err
		}
		if err := db.DeleteProtocol(p.ID.String()); err != nil {
			return fmt.Errorf("failed to delete protocol: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("✗ Deleted %s %s", p.PeptideName, p.Dose))
		return nil
	},
}

func init() {
	protocolAddCmd.Flags().StringVar(&protocolName, "name", "", "protocol name (default: peptide name)")
	protocolAddCmd.Flags().StringVar(&protocolStart, "start", "", "start date (YYYY-MM-DD, default today)")
	protocolAddCmd.Flags().StringVar(&protocolWeekdays, "weekdays", "", "dose on these weekdays, e.g. mon,thu")
	protocolAddCmd.Flags().IntVar(&protocolEvery, "every", 0, "dose every N days")
	protocolAddCmd.Flags().StringVar(&protocolCycle, "cycle", "", "cycle ON/OFF days, e.g. 5/2")
	protocolAddCmd.Flags().StringVar(&protocolCycleStart, "cycle-start", "", "first day of the cycle (default: start date)")
	protocolAddCmd.Flags().IntVar(&protocolPerDay, "per-day", 1, "doses per scheduled day")
	protocolAddCmd.Flags().StringVar(&protocolNotes, "notes", "", "notes")
	protocolListCmd.Flags().BoolVar(&protocolActiveOnly, "active", false, "only active protocols")

	protocolCmd.AddCommand(protocolAddCmd)
	protocolCmd.AddCommand(protocolListCmd)
	protocolCmd.AddCommand(statusCommand("pause", "Pause a protocol", models.ProtocolPaused))
	protocolCmd.AddCommand(statusCommand("resume", "Resume a paused protocol", models.ProtocolActive))
	protocolCmd.AddCommand(protocolDeleteCmd)
	rootCmd.AddCommand(protocolCmd)
}
