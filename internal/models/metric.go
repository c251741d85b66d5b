// ABOUTME: Biometric Metric enum used by baselines, trends and correlations.
// ABOUTME: Carries display units, polarity, and accessors into DailyHealthSummary.
package models

// Metric identifies a biometric series derived from daily summaries.
type Metric string

const (
	MetricHRV           Metric = "hrv"
	MetricRestingHR     Metric = "resting_hr"
	MetricSleepScore    Metric = "sleep_score"
	MetricSleepDuration Metric = "sleep_duration"
	MetricDeepSleep     Metric = "deep_sleep"
	MetricStress        Metric = "stress"
	MetricBodyBattery   Metric = "body_battery"
	MetricSteps         Metric = "steps"
)

// MetricUnits maps metrics to their display units.
var MetricUnits = map[Metric]string{
	MetricHRV:           "ms",
	MetricRestingHR:     "bpm",
	MetricSleepScore:    "score",
	MetricSleepDuration: "hours",
	MetricDeepSleep:     "hours",
	MetricStress:        "scale",
	MetricBodyBattery:   "scale",
	MetricSteps:         "steps",
}

// HigherIsBetter is the polarity table. Metrics mapped to false improve as they fall.
var HigherIsBetter = map[Metric]bool{
	MetricHRV:           true,
	MetricRestingHR:     false,
	MetricSleepScore:    true,
	MetricSleepDuration: true,
	MetricDeepSleep:     true,
	MetricStress:        false,
	MetricBodyBattery:   true,
	MetricSteps:         true,
}

// AllMetrics lists every metric in a stable order.
var AllMetrics = []Metric{
	MetricHRV, MetricRestingHR, MetricSleepScore, MetricSleepDuration,
	MetricDeepSleep, MetricStress, MetricBodyBattery, MetricSteps,
}

// IsValidMetric checks if a string names a known metric.
func IsValidMetric(s string) bool {
	for _, m := range AllMetrics {
		if string(m) == s {
			return true
		}
	}
	return false
}

// Value extracts the metric from a daily summary. ok is false when absent.
func (m Metric) Value(s *DailyHealthSummary) (float64, bool) {
	switch m {
	case MetricHRV:
		return deref(s.HRVAvg)
	case MetricRestingHR:
		return deref(s.RestingHR)
	case MetricSleepScore:
		return deref(s.SleepScore)
	case MetricSleepDuration:
		return deref(s.SleepDurationHours)
	case MetricDeepSleep:
		return deref(s.DeepSleepHours)
	case MetricStress:
		return deref(s.StressAvg)
	case MetricBodyBattery:
		return deref(s.BodyBatteryHigh)
	case MetricSteps:
		if s.Steps == nil {
			return 0, false
		}
		return float64(*s.Steps), true
	}
	return 0, false
}

// Values collects the present values of m across days, in order.
func (m Metric) Values(days []DailyHealthSummary) []float64 {
	var out []float64
	for i := range days {
		if v, ok := m.Value(&days[i]); ok {
			out = append(out, v)
		}
	}
	return out
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
