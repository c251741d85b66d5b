// ABOUTME: Daily merge engine folding per-type entries into one row per date.
// ABOUTME: Field precedence between sources is an explicit table, not ad hoc checks.
package garmin

import (
	"sort"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// fieldPrecedence lists, per field, the sources allowed to compete for it,
// highest precedence first. A lower ranked source never overwrites a value
// set by a higher ranked one. Fields absent here are last writer wins.
var fieldPrecedence = map[models.Field][]DataType{
	models.FieldHRVAvg:         {TypeHRV, TypeHealthStatus},
	models.FieldRestingHR:      {TypeDailySummary, TypeHealthStatus},
	models.FieldDistanceMeters: {TypeDailySummary, TypeActivities},
	models.FieldCaloriesTotal:  {TypeDailySummary, TypeActivities},
	models.FieldCaloriesActive: {TypeDailySummary, TypeActivities},
	models.FieldActiveMinutes:  {TypeDailySummary, TypeActivities},
}

// rank returns the position of src in the field's precedence list. Unlisted
// sources rank below every listed one.
func rank(field models.Field, src DataType) (int, bool) {
	order, ok := fieldPrecedence[field]
	if !ok {
		return 0, false
	}
	for i, t := range order {
		if t == src {
			return i, true
		}
	}
	return len(order), true
}

// Rank exposes the precedence table to code that merges rows across
// imports. It satisfies models.Ranker.
func Rank(field models.Field, src string) (int, bool) {
	return rank(field, DataType(src))
}

// Merger accumulates one import's entries into daily rows. It is not safe
// for concurrent use and should be discarded after the import.
type Merger struct {
	rows     map[string]*models.DailyHealthSummary
	sources  map[string]map[models.Field]DataType
	activity map[string]*models.DailyHealthSummary
	seen     map[string]bool
}

// NewMerger creates an empty accumulator.
func NewMerger() *Merger {
	return &Merger{
		rows:     make(map[string]*models.DailyHealthSummary),
		sources:  make(map[string]map[models.Field]DataType),
		activity: make(map[string]*models.DailyHealthSummary),
		seen:     make(map[string]bool),
	}
}

func (m *Merger) row(date string) *models.DailyHealthSummary {
	r, ok := m.rows[date]
	if !ok {
		r = models.NewDailyHealthSummary(date)
		m.rows[date] = r
		m.sources[date] = make(map[models.Field]DataType)
	}
	return r
}

// set writes v into the field when src is allowed to replace the current value.
func (m *Merger) set(date string, field models.Field, src DataType, v *float64) {
	if v == nil {
		return
	}
	r := m.row(date)
	if r.Has(field) {
		if newRank, ranked := rank(field, src); ranked {
			oldRank, _ := rank(field, m.sources[date][field])
			if newRank > oldRank {
				return
			}
		}
	}
	r.Set(field, *v)
	m.sources[date][field] = src
}

// Add merges one entry of the given data type.
func (m *Merger) Add(t DataType, e Entry) {
	if e.Date == "" {
		return
	}
	rec := e.Record
	if rec == nil {
		rec = decodeRecord(t, e.Raw)
	}

	switch r := rec.(type) {
	case SleepRecord:
		m.addSleep(e.Date, r)
	case HRVRecord:
		v := r.LastNightAvg
		if v == nil {
			v = r.Value
		}
		m.set(e.Date, models.FieldHRVAvg, TypeHRV, v)
	case StressRecord:
		m.set(e.Date, models.FieldStressAvg, TypeStress, r.Overall)
	case BodyBatteryRecord:
		m.addBodyBattery(e.Date, r)
	case DailySummaryRecord:
		m.addDailySummary(e.Date, r)
	case HealthStatusRecord:
		m.set(e.Date, models.FieldHRVAvg, TypeHealthStatus, r.HRV)
		m.set(e.Date, models.FieldRestingHR, TypeHealthStatus, r.HR)
	}
}

// AddFile merges every entry of a parsed file.
func (m *Merger) AddFile(pf *ParsedFile) {
	for _, e := range pf.Entries {
		m.Add(pf.Type, e)
	}
}

func (m *Merger) addSleep(date string, r SleepRecord) {
	total := r.TotalSeconds
	if total == nil {
		var sum float64
		var found bool
		for _, s := range []*float64{r.DeepSeconds, r.LightSeconds, r.RemSeconds, r.AwakeSeconds} {
			if s != nil {
				sum += *s
				found = true
			}
		}
		if found {
			total = &sum
		}
	}
	m.set(date, models.FieldSleepDurationHours, TypeSleep, hours(total))
	m.set(date, models.FieldDeepSleepHours, TypeSleep, hours(r.DeepSeconds))
	m.set(date, models.FieldLightSleepHours, TypeSleep, hours(r.LightSeconds))
	m.set(date, models.FieldRemSleepHours, TypeSleep, hours(r.RemSeconds))
	m.set(date, models.FieldAwakeHours, TypeSleep, hours(r.AwakeSeconds))
	m.set(date, models.FieldSleepScore, TypeSleep, r.Score)
}

func (m *Merger) addBodyBattery(date string, r BodyBatteryRecord) {
	high, low := r.Highest, r.Lowest
	if high == nil {
		high = maxOf(r.StartOfDay, r.EndOfDay)
	}
	if low == nil {
		low = minOf(r.StartOfDay, r.EndOfDay)
	}
	m.set(date, models.FieldBodyBatteryHigh, TypeBodyBattery, high)
	m.set(date, models.FieldBodyBatteryLow, TypeBodyBattery, low)
}

func (m *Merger) addDailySummary(date string, r DailySummaryRecord) {
	m.set(date, models.FieldSteps, TypeDailySummary, r.Steps)
	m.set(date, models.FieldDistanceMeters, TypeDailySummary, r.DistanceMeters)

	total := r.TotalKcal
	if r.ActiveKcal != nil && r.BMRKcal != nil {
		total = models.Float(*r.ActiveKcal + *r.BMRKcal)
	}
	m.set(date, models.FieldCaloriesTotal, TypeDailySummary, total)
	m.set(date, models.FieldCaloriesActive, TypeDailySummary, r.ActiveKcal)

	if r.ModerateMinutes != nil || r.VigorousMinutes != nil {
		var minutes float64
		if r.ModerateMinutes != nil {
			minutes += *r.ModerateMinutes
		}
		if r.VigorousMinutes != nil {
			minutes += *r.VigorousMinutes
		}
		m.set(date, models.FieldActiveMinutes, TypeDailySummary, &minutes)
	}

	m.set(date, models.FieldRestingHR, TypeDailySummary, r.RestingHR)
	m.set(date, models.FieldStressAvg, TypeDailySummary, r.StressAvg)
	m.set(date, models.FieldBodyBatteryHigh, TypeDailySummary, r.BodyBatteryHigh)
	m.set(date, models.FieldBodyBatteryLow, TypeDailySummary, r.BodyBatteryLow)
}

// AddActivities folds workouts into the daily rows as the activities source.
// An activity already added (same type and start) is not counted twice.
func (m *Merger) AddActivities(activities []*models.ParsedActivity) {
	var fresh []*models.ParsedActivity
	for _, a := range activities {
		key := a.ActivityType + "|" + a.StartTime.UTC().String()
		if m.seen[key] {
			continue
		}
		m.seen[key] = true
		fresh = append(fresh, a)
	}

	for date, day := range SummarizeActivities(fresh) {
		acc, ok := m.activity[date]
		if !ok {
			acc = models.NewDailyHealthSummary(date)
			m.activity[date] = acc
		}
		acc.DistanceMeters = addFloat(acc.DistanceMeters, day.DistanceMeters)
		acc.CaloriesTotal = addInt(acc.CaloriesTotal, day.CaloriesTotal)
		acc.CaloriesActive = addInt(acc.CaloriesActive, day.CaloriesActive)
		acc.ActiveMinutes = addInt(acc.ActiveMinutes, day.ActiveMinutes)

		m.set(date, models.FieldDistanceMeters, TypeActivities, acc.DistanceMeters)
		m.set(date, models.FieldCaloriesTotal, TypeActivities, intAsFloat(acc.CaloriesTotal))
		m.set(date, models.FieldCaloriesActive, TypeActivities, intAsFloat(acc.CaloriesActive))
		m.set(date, models.FieldActiveMinutes, TypeActivities, intAsFloat(acc.ActiveMinutes))
	}
}

// Len returns the number of dates accumulated so far.
func (m *Merger) Len() int {
	return len(m.rows)
}

// Days returns a copy of the accumulator keyed by date. Each row carries the
// source that set each of its fields.
func (m *Merger) Days() map[string]*models.DailyHealthSummary {
	out := make(map[string]*models.DailyHealthSummary, len(m.rows))
	for date, r := range m.rows {
		c := models.NewDailyHealthSummary(date)
		c.Patch(r)
		for f, src := range m.sources[date] {
			c.SetSource(f, string(src))
		}
		out[date] = c
	}
	return out
}

// Summaries projects the accumulator into rows sorted by date. Absent fields
// stay nil.
func (m *Merger) Summaries(userID string) []models.DailyHealthSummary {
	days := m.Days()
	out := make([]models.DailyHealthSummary, 0, len(days))
	for _, d := range days {
		d.UserID = userID
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func hours(seconds *float64) *float64 {
	if seconds == nil {
		return nil
	}
	return models.Float(*seconds / 3600)
}

func maxOf(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil || *a >= *b:
		return a
	}
	return b
}

func minOf(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil || *a <= *b:
		return a
	}
	return b
}

func addFloat(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil {
		return models.Float(*v)
	}
	return models.Float(*acc + *v)
}

func addInt(acc, v *int) *int {
	if v == nil {
		return acc
	}
	if acc == nil {
		return models.Int(*v)
	}
	return models.Int(*acc + *v)
}

func intAsFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(float64(*v))
}
