// ABOUTME: Baseline statistics over a trailing window of daily summaries.
// ABOUTME: Zero-valued fields mean "no baseline", never a literal average of zero.
package analysis

import (
	"math"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// BaselineWindowDays is the trailing window preceding the analysis week.
const BaselineWindowDays = 28

// BaselineMetrics holds per-metric means (and HRV spread) for a set of days.
type BaselineMetrics struct {
	AvgHRV         float64 `json:"avg_hrv"`
	HRVStdDev      float64 `json:"hrv_std_dev"`
	AvgRestingHR   float64 `json:"avg_resting_hr"`
	AvgSleepScore  float64 `json:"avg_sleep_score"`
	AvgSleepHours  float64 `json:"avg_sleep_hours"`
	AvgStress      float64 `json:"avg_stress"`
	AvgBodyBattery float64 `json:"avg_body_battery"`
	AvgSteps       float64 `json:"avg_steps"`
}

// CalculateBaseline averages the present values of each metric.
func CalculateBaseline(days []models.DailyHealthSummary) BaselineMetrics {
	hrv := models.MetricHRV.Values(days)
	return BaselineMetrics{
		AvgHRV:         mean(hrv),
		HRVStdDev:      stdDev(hrv),
		AvgRestingHR:   mean(models.MetricRestingHR.Values(days)),
		AvgSleepScore:  mean(models.MetricSleepScore.Values(days)),
		AvgSleepHours:  mean(models.MetricSleepDuration.Values(days)),
		AvgStress:      mean(models.MetricStress.Values(days)),
		AvgBodyBattery: mean(models.MetricBodyBattery.Values(days)),
		AvgSteps:       mean(models.MetricSteps.Values(days)),
	}
}

// Value returns the baseline mean for a metric, or 0 when none is tracked.
func (b BaselineMetrics) Value(m models.Metric) float64 {
	switch m {
	case models.MetricHRV:
		return b.AvgHRV
	case models.MetricRestingHR:
		return b.AvgRestingHR
	case models.MetricSleepScore:
		return b.AvgSleepScore
	case models.MetricSleepDuration:
		return b.AvgSleepHours
	case models.MetricStress:
		return b.AvgStress
	case models.MetricBodyBattery:
		return b.AvgBodyBattery
	case models.MetricSteps:
		return b.AvgSteps
	}
	return 0
}

// coreFields are the six scalars used to infer baseline coverage.
func (b BaselineMetrics) coreFields() []float64 {
	return []float64{b.AvgHRV, b.AvgRestingHR, b.AvgSleepScore, b.AvgSleepHours, b.AvgStress, b.AvgBodyBattery}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}
