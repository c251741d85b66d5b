// ABOUTME: Insight generation turning a weekly analysis report into a narrative.
// ABOUTME: Builds the model prompt from validation, comparisons and correlations.
package insight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
)

// ErrInsufficientData is returned when the report does not pass validation.
var ErrInsufficientData = errors.New("not enough data for insights")

// Generator writes a Markdown narrative for a report.
type Generator interface {
	Generate(ctx context.Context, r *analysis.Report) (string, error)
}

const systemPrompt = `You are a careful health data analyst helping someone track peptide protocols
against Garmin biometrics. Describe patterns in plain language, note when evidence is weak,
never give medical advice or dosing recommendations, and answer in Markdown with short sections:
Summary, Biometrics, Peptide correlations, Data quality.`

// CheckReport returns ErrInsufficientData (wrapped with the unmet
// requirements) when the report is not valid for insights.
func CheckReport(r *analysis.Report) error {
	if r == nil {
		return fmt.Errorf("%w: no report", ErrInsufficientData)
	}
	if !r.Validation.IsValid {
		reasons := r.Validation.MissingRequirements
		if len(reasons) == 0 {
			reasons = []string{fmt.Sprintf("data quality is %s", r.Validation.Quality)}
		}
		return fmt.Errorf("%w: %s", ErrInsufficientData, strings.Join(reasons, "; "))
	}
	return nil
}

// BuildPrompt renders the report facts the model is allowed to use.
func BuildPrompt(r *analysis.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analysis week: %s to %s (baseline from %s).\n", r.WeekStart, r.WeekEnd, r.BaselineFrom))
	sb.WriteString(fmt.Sprintf("Days with data this week: %d. Doses taken this week: %d.\n", r.WeekDays, r.WeekDoses))
	peptides := make([]string, 0, len(r.DosesByPep))
	for p := range r.DosesByPep {
		peptides = append(peptides, p)
	}
	sort.Strings(peptides)
	for _, p := range peptides {
		sb.WriteString(fmt.Sprintf("- %s: %d doses\n", p, r.DosesByPep[p]))
	}

	sb.WriteString(fmt.Sprintf("\nData quality: %s (score %.2f).\n", r.Validation.Quality, r.Validation.Score))
	for _, w := range r.Validation.Warnings {
		sb.WriteString(fmt.Sprintf("- warning: %s\n", w))
	}

	if len(r.Comparisons) > 0 {
		sb.WriteString("\nThis week vs 28-day baseline:\n")
		for _, c := range r.Comparisons {
			sb.WriteString(fmt.Sprintf("- %s: %.1f vs %.1f (%+.1f%%, %s)\n", c.Metric, c.Current, c.Baseline, c.ChangePct, c.Status))
		}
	}

	if len(r.Trends) > 0 {
		sb.WriteString("\nWeekly trends:\n")
		for _, t := range r.Trends {
			sb.WriteString(fmt.Sprintf("- %s: %s (%+.1f%% over the week)\n", t.Metric, t.Direction, t.ChangePct))
		}
	}

	if len(r.Correlations) > 0 {
		sb.WriteString("\nDose correlations (point-biserial, heuristic only):\n")
		for _, c := range r.Correlations {
			sb.WriteString(fmt.Sprintf("- %s -> %s, lag %dd: r=%.2f (%s, %s), dosed mean %.1f vs undosed %.1f over %d/%d days\n",
				c.Peptide, c.Metric, c.LagDays, c.Correlation, c.Significance, c.Effect,
				c.DosedMean, c.UndosedMean, c.DosedDays, c.UndosedDays))
		}
	} else {
		sb.WriteString("\nNo dose correlations passed the reporting threshold.\n")
	}

	return sb.String()
}
