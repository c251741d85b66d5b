// ABOUTME: Collapses parsed activities into per-day distance, calorie and minute totals.
// ABOUTME: Leaves fields activities cannot report (steps, sleep, HRV) unset.
package garmin

import (
	"math"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// SummarizeActivities groups activities by start date. Calories go into both
// the total and active buckets since workouts cannot separate basal burn.
func SummarizeActivities(activities []*models.ParsedActivity) map[string]*models.DailyHealthSummary {
	out := make(map[string]*models.DailyHealthSummary)
	seconds := make(map[string]float64)

	for _, a := range activities {
		if a == nil {
			continue
		}
		date := a.Date()
		day, ok := out[date]
		if !ok {
			day = models.NewDailyHealthSummary(date)
			out[date] = day
		}
		if a.DistanceMeters != nil {
			day.DistanceMeters = addFloat(day.DistanceMeters, a.DistanceMeters)
		}
		if a.Calories != nil {
			day.CaloriesTotal = addInt(day.CaloriesTotal, a.Calories)
			day.CaloriesActive = addInt(day.CaloriesActive, a.Calories)
		}
		if a.DurationSeconds != nil {
			seconds[date] += *a.DurationSeconds
			day.ActiveMinutes = models.Int(int(math.Round(seconds[date] / 60)))
		}
	}
	return out
}
