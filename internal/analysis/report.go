// ABOUTME: Weekly analysis report combining baseline, trends, correlations and validation.
// ABOUTME: Renders to Markdown for terminal display and as insight prompt context.
package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// ReportInput is everything BuildReport reads. Days and Doses may span more
// than the baseline window plus the analysis week; extra rows are ignored.
type ReportInput struct {
	Days      []models.DailyHealthSummary
	Doses     []models.DoseLog
	Protocols []*models.Protocol
	WeekStart time.Time
	WeekEnd   time.Time
}

// Report is the outcome of one weekly analysis run.
type Report struct {
	WeekStart    string                      `json:"week_start"`
	WeekEnd      string                      `json:"week_end"`
	BaselineFrom string                      `json:"baseline_from"`
	Baseline     BaselineMetrics             `json:"baseline"`
	Current      BaselineMetrics             `json:"current"`
	Comparisons  []MetricComparison          `json:"comparisons"`
	Trends       []Trend                     `json:"trends"`
	Outliers     map[models.Metric][]Outlier `json:"outliers,omitempty"`
	Correlations []CorrelationResult         `json:"correlations"`
	Validation   ValidationResult            `json:"validation"`
	WeekDays     int                         `json:"week_days"`
	WeekDoses    int                         `json:"week_doses"`
	DosesByPep   map[string]int              `json:"doses_by_peptide,omitempty"`
}

// WeekBounds returns the seven-day week ending on end (inclusive).
func WeekBounds(end time.Time) (time.Time, time.Time) {
	y, m, d := end.Date()
	weekEnd := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return weekEnd.AddDate(0, 0, -6), weekEnd
}

// BuildReport analyzes [WeekStart, WeekEnd] against the 28 days before it.
func BuildReport(in ReportInput) *Report {
	weekStart := in.WeekStart.Format(models.DateLayout)
	weekEnd := in.WeekEnd.Format(models.DateLayout)
	baseFrom := in.WeekStart.AddDate(0, 0, -BaselineWindowDays).Format(models.DateLayout)

	var baseDays, weekDays, allDays []models.DailyHealthSummary
	for _, d := range in.Days {
		switch {
		case d.Date >= baseFrom && d.Date < weekStart:
			baseDays = append(baseDays, d)
			allDays = append(allDays, d)
		case d.Date >= weekStart && d.Date <= weekEnd:
			weekDays = append(weekDays, d)
			allDays = append(allDays, d)
		}
	}

	var doses []models.DoseLog
	r := &Report{
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		BaselineFrom: baseFrom,
		WeekDays:     len(weekDays),
		DosesByPep:   make(map[string]int),
		Outliers:     make(map[models.Metric][]Outlier),
	}
	for _, d := range in.Doses {
		date := d.Date()
		if date < baseFrom || date > weekEnd {
			continue
		}
		doses = append(doses, d)
		if date >= weekStart && d.Status == models.DoseTaken {
			r.WeekDoses++
			r.DosesByPep[d.PeptideName]++
		}
	}

	r.Baseline = CalculateBaseline(baseDays)
	r.Current = CalculateBaseline(weekDays)
	r.Comparisons = CompareToBaseline(r.Baseline, r.Current)

	for _, m := range models.AllMetrics {
		values := m.Values(weekDays)
		if len(values) < 2 {
			continue
		}
		r.Trends = append(r.Trends, CalculateTrend(values, m))
		if out := DetectOutliers(values); len(out) > 0 {
			r.Outliers[m] = out
		}
	}

	r.Validation = ValidateData(SummarizeUserData(allDays, doses, in.Protocols, r.Baseline))
	if r.Validation.HasMinimumData {
		r.Correlations = CalculateCorrelations(doses, allDays, r.Baseline)
	}
	return r
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Weekly Analysis %s to %s\n\n", r.WeekStart, r.WeekEnd))
	sb.WriteString(fmt.Sprintf("Data quality: **%s** (score %.2f)\n\n", r.Validation.Quality, r.Validation.Score))

	if len(r.Validation.MissingRequirements) > 0 {
		sb.WriteString("## Missing requirements\n\n")
		for _, m := range r.Validation.MissingRequirements {
			sb.WriteString(fmt.Sprintf("- %s\n", m))
		}
		sb.WriteString("\n")
	}
	if len(r.Validation.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Validation.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	if len(r.Comparisons) > 0 {
		sb.WriteString("## This week vs baseline\n\n")
		sb.WriteString("| Metric | Baseline | This week | Change | Status |\n")
		sb.WriteString("|--------|----------|-----------|--------|--------|\n")
		for _, c := range r.Comparisons {
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %.1f | %+.1f%% | %s |\n",
				c.Metric, c.Baseline, c.Current, c.ChangePct, c.Status))
		}
		sb.WriteString("\n")
	}

	if len(r.Trends) > 0 {
		sb.WriteString("## Trends\n\n")
		for _, t := range r.Trends {
			line := fmt.Sprintf("- %s: %s (%+.1f%%)", t.Metric, t.Direction, t.ChangePct)
			if n := len(r.Outliers[t.Metric]); n > 0 {
				line += fmt.Sprintf(", %d outlier(s)", n)
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Dose correlations\n\n")
	switch {
	case !r.Validation.HasMinimumData:
		sb.WriteString("Not enough data to correlate doses with biometrics yet.\n")
	case len(r.Correlations) == 0:
		sb.WriteString("No correlations above the reporting threshold.\n")
	default:
		sb.WriteString("| Peptide | Metric | Lag | r | Strength | Effect |\n")
		sb.WriteString("|---------|--------|-----|---|----------|--------|\n")
		for _, c := range r.Correlations {
			sb.WriteString(fmt.Sprintf("| %s | %s | %dd | %+.2f | %s | %s |\n",
				c.Peptide, c.Metric, c.LagDays, c.Correlation, c.Significance, c.Effect))
		}
	}

	return sb.String()
}
