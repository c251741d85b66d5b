// ABOUTME: Outlier detection, linear trends and baseline comparisons.
// ABOUTME: Direction labels honor each metric's higher-or-lower-is-better polarity.
package analysis

import (
	"math"
	"sort"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// ChangeThresholdPct is the percent change below which a metric is stable.
const ChangeThresholdPct = 5.0

// TrendDirection classifies a trend or a comparison.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Outlier is a value outside the 1.5 IQR whiskers.
type Outlier struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	High  bool    `json:"high"`
}

// DetectOutliers flags values beyond Q1-1.5*IQR or Q3+1.5*IQR, with linearly
// interpolated quartiles. Fewer than four values yield nothing.
func DetectOutliers(values []float64) []Outlier {
	n := len(values)
	if n < 4 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	var out []Outlier
	for i, v := range values {
		switch {
		case v < lower:
			out = append(out, Outlier{Index: i, Value: v})
		case v > upper:
			out = append(out, Outlier{Index: i, Value: v, High: true})
		}
	}
	return out
}

// quantile interpolates between the closest ranks of a sorted slice.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Trend is a least-squares fit over an ordered series.
type Trend struct {
	Metric    models.Metric  `json:"metric"`
	Slope     float64        `json:"slope"`
	ChangePct float64        `json:"change_pct"`
	Direction TrendDirection `json:"direction"`
}

// CalculateTrend fits a line through values (x = 0..n-1). ChangePct is the
// fitted rise across the span relative to the mean.
func CalculateTrend(values []float64, metric models.Metric) Trend {
	t := Trend{Metric: metric, Direction: TrendStable}
	n := len(values)
	if n < 2 {
		return t
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return t
	}
	t.Slope = (fn*sumXY - sumX*sumY) / denom

	avg := sumY / fn
	if avg == 0 {
		return t
	}
	t.ChangePct = t.Slope * float64(n-1) / math.Abs(avg) * 100
	t.Direction = classify(t.ChangePct, metric)
	return t
}

func classify(changePct float64, metric models.Metric) TrendDirection {
	if math.Abs(changePct) <= ChangeThresholdPct {
		return TrendStable
	}
	if (changePct > 0) == models.HigherIsBetter[metric] {
		return TrendImproving
	}
	return TrendDeclining
}

// MetricComparison is one metric's current value against its baseline.
type MetricComparison struct {
	Metric    models.Metric  `json:"metric"`
	Baseline  float64        `json:"baseline"`
	Current   float64        `json:"current"`
	ChangePct float64        `json:"change_pct"`
	Status    TrendDirection `json:"status"`
}

// comparedMetrics have a BaselineMetrics field.
var comparedMetrics = []models.Metric{
	models.MetricHRV, models.MetricRestingHR, models.MetricSleepScore, models.MetricSleepDuration,
	models.MetricStress, models.MetricBodyBattery, models.MetricSteps,
}

// CompareToBaseline reports percent change per metric. Metrics with a zero
// baseline or zero current value are omitted.
func CompareToBaseline(baseline, current BaselineMetrics) []MetricComparison {
	var out []MetricComparison
	for _, m := range comparedMetrics {
		b, c := baseline.Value(m), current.Value(m)
		if b == 0 || c == 0 {
			continue
		}
		pct := (c - b) / b * 100
		out = append(out, MetricComparison{
			Metric:    m,
			Baseline:  b,
			Current:   c,
			ChangePct: pct,
			Status:    classify(pct, m),
		})
	}
	return out
}
