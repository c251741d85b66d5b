// ABOUTME: Lagged point-biserial correlation between dosing days and biometrics.
// ABOUTME: Keeps pairs with |r| >= 0.3 and buckets them by strength.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

const (
	// CorrelationThreshold is the minimum |r| reported. It is a heuristic
	// cutoff with no multiple-comparison correction.
	CorrelationThreshold = 0.3
	// MaxLagDays is the largest dose-to-observation delay tested.
	MaxLagDays = 2
	// MinCorrelationDays is the fewest metric days a pair needs.
	MinCorrelationDays = 3
)

// Significance buckets |r|.
type Significance string

const (
	SignificanceStrong   Significance = "strong"
	SignificanceModerate Significance = "moderate"
	SignificanceWeak     Significance = "weak"
)

// Direction is the sign of r.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// Effect interprets the sign through the metric's polarity.
type Effect string

const (
	EffectImproves Effect = "improves"
	EffectWorsens  Effect = "worsens"
)

// CorrelationResult is one retained (peptide, metric, lag) triple.
type CorrelationResult struct {
	Peptide      string        `json:"peptide"`
	Metric       models.Metric `json:"metric"`
	Correlation  float64       `json:"correlation"`
	LagDays      int           `json:"lag_days"`
	Significance Significance  `json:"significance"`
	Direction    Direction     `json:"direction"`
	Effect       Effect        `json:"effect"`
	DosedDays    int           `json:"dosed_days"`
	UndosedDays  int           `json:"undosed_days"`
	DosedMean    float64       `json:"dosed_mean"`
	UndosedMean  float64       `json:"undosed_mean"`
	ChangePct    float64       `json:"change_pct"`
}

// SignificanceFor buckets a coefficient.
func SignificanceFor(r float64) Significance {
	switch a := math.Abs(r); {
	case a >= 0.7:
		return SignificanceStrong
	case a >= 0.5:
		return SignificanceModerate
	}
	return SignificanceWeak
}

type metricPoint struct {
	date  time.Time
	value float64
}

// CalculateCorrelations tests every peptide with a taken dose against every
// metric at lags 0..MaxLagDays. Results are sorted by |r| descending.
func CalculateCorrelations(doses []models.DoseLog, days []models.DailyHealthSummary, baseline BaselineMetrics) []CorrelationResult {
	dosed := make(map[string]map[string]bool)
	for _, d := range doses {
		if d.Status != models.DoseTaken {
			continue
		}
		if dosed[d.PeptideName] == nil {
			dosed[d.PeptideName] = make(map[string]bool)
		}
		dosed[d.PeptideName][d.Date()] = true
	}

	peptides := make([]string, 0, len(dosed))
	for p := range dosed {
		peptides = append(peptides, p)
	}
	sort.Strings(peptides)

	var results []CorrelationResult
	for _, metric := range models.AllMetrics {
		series := metricSeries(days, metric)
		if len(series) < MinCorrelationDays {
			continue
		}
		values := make([]float64, len(series))
		for i, p := range series {
			values[i] = p.value
		}
		s := stdDev(values)
		if s == 0 {
			continue
		}

		for _, peptide := range peptides {
			for lag := 0; lag <= MaxLagDays; lag++ {
				r, ok := pointBiserial(series, dosed[peptide], lag, s, metric, baseline)
				if !ok || math.Abs(r.Correlation) < CorrelationThreshold {
					continue
				}
				r.Peptide = peptide
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Correlation) > math.Abs(results[j].Correlation)
	})
	return results
}

func metricSeries(days []models.DailyHealthSummary, metric models.Metric) []metricPoint {
	var out []metricPoint
	for i := range days {
		v, ok := metric.Value(&days[i])
		if !ok {
			continue
		}
		d := days[i].Day()
		if d.IsZero() {
			continue
		}
		out = append(out, metricPoint{date: d, value: v})
	}
	return out
}

// pointBiserial computes r = (m1-m0)/s * sqrt(n1*n0)/n for one lag.
func pointBiserial(series []metricPoint, dosedDates map[string]bool, lag int, s float64, metric models.Metric, baseline BaselineMetrics) (CorrelationResult, bool) {
	var sum1, sum0 float64
	var n1, n0 int
	for _, p := range series {
		if dosedDates[p.date.AddDate(0, 0, -lag).Format(models.DateLayout)] {
			sum1 += p.value
			n1++
		} else {
			sum0 += p.value
			n0++
		}
	}
	if n1 == 0 || n0 == 0 {
		return CorrelationResult{}, false
	}

	m1, m0 := sum1/float64(n1), sum0/float64(n0)
	n := float64(n1 + n0)
	r := (m1 - m0) / s * math.Sqrt(float64(n1)*float64(n0)) / n
	r = math.Max(-1, math.Min(1, r))

	res := CorrelationResult{
		Metric:       metric,
		Correlation:  r,
		LagDays:      lag,
		Significance: SignificanceFor(r),
		Direction:    DirectionPositive,
		DosedDays:    n1,
		UndosedDays:  n0,
		DosedMean:    m1,
		UndosedMean:  m0,
	}
	if r < 0 {
		res.Direction = DirectionNegative
	}
	if (r > 0) == models.HigherIsBetter[metric] {
		res.Effect = EffectImproves
	} else {
		res.Effect = EffectWorsens
	}

	ref := baseline.Value(metric)
	if ref == 0 {
		ref = m0
	}
	if ref != 0 {
		res.ChangePct = (m1 - ref) / ref * 100
	}
	return res, true
}
