// ABOUTME: CLI commands for the weekly analysis report and data validation.
// ABOUTME: Renders Markdown with glamour and optionally adds a Gemini narrative.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
	"github.com/djtroymx1/PepMetrics-sub000/internal/insight"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeWeekEnd string
	analyzeInsight bool
	analyzeJSON    bool
	analyzeRaw     bool
)

// newGenerator is swapped in tests.
var newGenerator = func(cmd *cobra.Command) (insight.Generator, error) {
	return insight.NewGemini(cmd.Context(), cfg.GeminiAPIKey, cfg.GetGeminiModel())
}

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"report"},
	Short:   "Weekly biometrics report with dose correlations",
	Long: `Analyze the seven days ending on --week-end (default today).

The report compares the week against the 28 days before it, shows the trend
of each metric during the week, flags outliers, and correlates each peptide's
dosing days with HRV, resting HR, sleep, stress, body battery and steps at a
lag of 0 to 2 days. Correlations are heuristics over small samples, not
evidence of effect.

With --insight the report is also sent to Gemini (GEMINI_API_KEY) for a short
plain-language summary. Insights are only generated when the data passes
validation.

EXAMPLES:

  pepmetrics analyze
  pepmetrics analyze --week-end 2024-03-10 --insight
  pepmetrics analyze --json > report.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		weekEnd, err := svc.ParseDay(analyzeWeekEnd)
		if err != nil {
			return err
		}
		r, err := svc.Report(weekEnd)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		if analyzeJSON {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		md := r.Markdown()
		if analyzeInsight {
			text, err := generateInsight(cmd, r)
			switch {
			case errors.Is(err, insight.ErrInsufficientData):
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("⚠ %v", err))
			case err != nil:
				return err
			default:
				md += "\n## Insights\n\n" + text + "\n"
			}
		}
		return printMarkdown(cmd, md)
	},
}

func generateInsight(cmd *cobra.Command, r *analysis.Report) (string, error) {
	if err := insight.CheckReport(r); err != nil {
		return "", err
	}
	gen, err := newGenerator(cmd)
	if err != nil {
		return "", err
	}
	logger.Debug("generating insight", zap.String("model", cfg.GetGeminiModel()))
	return gen.Generate(cmd.Context(), r)
}

// printMarkdown renders md for the terminal unless --raw is set.
func printMarkdown(cmd *cobra.Command, md string) error {
	if analyzeRaw {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether there is enough data for analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := svc.Validate()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		quality := string(v.Quality)
		switch v.Quality {
		case analysis.QualityExcellent, analysis.QualityGood:
			quality = color.GreenString(quality)
		case analysis.QualityFair:
			quality = color.YellowString(quality)
		default:
			quality = color.RedString(quality)
		}
		fmt.Fprintf(out, "Data quality: %s (score %.0f%%)\n", quality, v.Score*100)
		fmt.Fprintf(out, "  biometric days %d, doses %d, active protocols %d, baseline days %d, completeness %.0f%%\n",
			v.Summary.BiometricDays, v.Summary.DoseCount, v.Summary.ActiveProtocols,
			v.BaselineDays, v.Summary.Completeness*100)

		if len(v.MissingRequirements) > 0 {
			fmt.Fprintln(out, color.RedString("Missing:"))
			fmt.Fprintln(out, "  - "+strings.Join(v.MissingRequirements, "\n  - "))
		}
		if len(v.Warnings) > 0 {
			fmt.Fprintln(out, color.YellowString("Warnings:"))
			fmt.Fprintln(out, "  - "+strings.Join(v.Warnings, "\n  - "))
		}
		if v.IsValid {
			fmt.Fprintln(out, color.GreenString("✓ Ready for analysis"))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeWeekEnd, "week-end", "", "last day of the week (YYYY-MM-DD, default today)")
	analyzeCmd.Flags().BoolVar(&analyzeInsight, "insight", false, "add a Gemini-generated narrative")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeRaw, "raw", false, "print Markdown without terminal rendering")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
}
