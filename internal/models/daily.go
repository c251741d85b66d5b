// ABOUTME: DailyHealthSummary model, one merged biometric row per user and date.
// ABOUTME: Every metric is optional; nil means "no source reported it", never zero.
package models

import (
	"math"
	"time"
)

// DateLayout is the calendar date key format used throughout.
const DateLayout = "2006-01-02"

// Field names a DailyHealthSummary column. Used by merge precedence rules.
type Field string

const (
	FieldSleepScore         Field = "sleep_score"
	FieldSleepDurationHours Field = "sleep_duration_hours"
	FieldDeepSleepHours     Field = "deep_sleep_hours"
	FieldLightSleepHours    Field = "light_sleep_hours"
	FieldRemSleepHours      Field = "rem_sleep_hours"
	FieldAwakeHours         Field = "awake_hours"
	FieldHRVAvg             Field = "hrv_avg"
	FieldRestingHR          Field = "resting_hr"
	FieldStressAvg          Field = "stress_avg"
	FieldBodyBatteryHigh    Field = "body_battery_high"
	FieldBodyBatteryLow     Field = "body_battery_low"
	FieldSteps              Field = "steps"
	FieldActiveMinutes      Field = "active_minutes"
	FieldCaloriesTotal      Field = "calories_total"
	FieldCaloriesActive     Field = "calories_active"
	FieldDistanceMeters     Field = "distance_meters"
)

// DailyHealthSummary is one row of biometric data for one calendar date.
type DailyHealthSummary struct {
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Date   string `json:"date" yaml:"date"`

	SleepScore         *float64 `json:"sleep_score,omitempty" yaml:"sleep_score,omitempty"`
	SleepDurationHours *float64 `json:"sleep_duration_hours,omitempty" yaml:"sleep_duration_hours,omitempty"`
	DeepSleepHours     *float64 `json:"deep_sleep_hours,omitempty" yaml:"deep_sleep_hours,omitempty"`
	LightSleepHours    *float64 `json:"light_sleep_hours,omitempty" yaml:"light_sleep_hours,omitempty"`
	RemSleepHours      *float64 `json:"rem_sleep_hours,omitempty" yaml:"rem_sleep_hours,omitempty"`
	AwakeHours         *float64 `json:"awake_hours,omitempty" yaml:"awake_hours,omitempty"`

	HRVAvg    *float64 `json:"hrv_avg,omitempty" yaml:"hrv_avg,omitempty"`
	RestingHR *float64 `json:"resting_hr,omitempty" yaml:"resting_hr,omitempty"`
	StressAvg *float64 `json:"stress_avg,omitempty" yaml:"stress_avg,omitempty"`

	BodyBatteryHigh *float64 `json:"body_battery_high,omitempty" yaml:"body_battery_high,omitempty"`
	BodyBatteryLow  *float64 `json:"body_battery_low,omitempty" yaml:"body_battery_low,omitempty"`

	Steps          *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	ActiveMinutes  *int     `json:"active_minutes,omitempty" yaml:"active_minutes,omitempty"`
	CaloriesTotal  *int     `json:"calories_total,omitempty" yaml:"calories_total,omitempty"`
	CaloriesActive *int     `json:"calories_active,omitempty" yaml:"calories_active,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty" yaml:"distance_meters,omitempty"`

	// Sources records which data source set each field, when known.
	Sources map[Field]string `json:"-" yaml:"-"`
}

// Fields lists every biometric column in storage order.
var Fields = []Field{
	FieldSleepScore, FieldSleepDurationHours, FieldDeepSleepHours, FieldLightSleepHours,
	FieldRemSleepHours, FieldAwakeHours, FieldHRVAvg, FieldRestingHR, FieldStressAvg,
	FieldBodyBatteryHigh, FieldBodyBatteryLow, FieldSteps, FieldActiveMinutes,
	FieldCaloriesTotal, FieldCaloriesActive, FieldDistanceMeters,
}

// Ranker orders src among the sources competing for f, zero being highest.
// ranked is false when f has no precedence rule.
type Ranker func(f Field, src string) (rank int, ranked bool)

// NewDailyHealthSummary creates an empty row for the given date.
func NewDailyHealthSummary(date string) *DailyHealthSummary {
	return &DailyHealthSummary{Date: date}
}

// Day parses the row's date key. The zero time is returned for a malformed key.
func (s *DailyHealthSummary) Day() time.Time {
	t, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Patch copies every field that is set on p onto s. Fields p leaves nil are kept.
func (s *DailyHealthSummary) Patch(p *DailyHealthSummary) {
	patchFloat(&s.SleepScore, p.SleepScore)
	patchFloat(&s.SleepDurationHours, p.SleepDurationHours)
	patchFloat(&s.DeepSleepHours, p.DeepSleepHours)
	patchFloat(&s.LightSleepHours, p.LightSleepHours)
	patchFloat(&s.RemSleepHours, p.RemSleepHours)
	patchFloat(&s.AwakeHours, p.AwakeHours)
	patchFloat(&s.HRVAvg, p.HRVAvg)
	patchFloat(&s.RestingHR, p.RestingHR)
	patchFloat(&s.StressAvg, p.StressAvg)
	patchFloat(&s.BodyBatteryHigh, p.BodyBatteryHigh)
	patchFloat(&s.BodyBatteryLow, p.BodyBatteryLow)
	patchInt(&s.Steps, p.Steps)
	patchInt(&s.ActiveMinutes, p.ActiveMinutes)
	patchInt(&s.CaloriesTotal, p.CaloriesTotal)
	patchInt(&s.CaloriesActive, p.CaloriesActive)
	patchFloat(&s.DistanceMeters, p.DistanceMeters)
}

// PatchRanked is Patch with per-field source precedence. A field p carries is
// skipped when s already holds it from a source that rank places higher.
// Fields p sets without a recorded source are applied unconditionally.
func (s *DailyHealthSummary) PatchRanked(p *DailyHealthSummary, rank Ranker) {
	for _, f := range Fields {
		v, ok := p.Get(f)
		if !ok {
			continue
		}
		src := p.Sources[f]
		if src != "" && s.Has(f) {
			if newRank, ranked := rank(f, src); ranked {
				oldRank, _ := rank(f, s.Sources[f])
				if newRank > oldRank {
					continue
				}
			}
		}
		s.Set(f, v)
		s.SetSource(f, src)
	}
}

// SetSource records src as the origin of f. An empty src forgets it.
func (s *DailyHealthSummary) SetSource(f Field, src string) {
	if src == "" {
		delete(s.Sources, f)
		return
	}
	if s.Sources == nil {
		s.Sources = make(map[Field]string)
	}
	s.Sources[f] = src
}

// HasBiometrics reports whether any field besides the date key is set.
func (s *DailyHealthSummary) HasBiometrics() bool {
	floats := []*float64{
		s.SleepScore, s.SleepDurationHours, s.DeepSleepHours, s.LightSleepHours,
		s.RemSleepHours, s.AwakeHours, s.HRVAvg, s.RestingHR, s.StressAvg,
		s.BodyBatteryHigh, s.BodyBatteryLow, s.DistanceMeters,
	}
	for _, f := range floats {
		if f != nil {
			return true
		}
	}
	return s.Steps != nil || s.ActiveMinutes != nil || s.CaloriesTotal != nil || s.CaloriesActive != nil
}

// Set stores v in the named field. Integer fields are rounded.
// Unknown field names are ignored.
func (s *DailyHealthSummary) Set(f Field, v float64) {
	if fp := s.floatField(f); fp != nil {
		*fp = Float(v)
		return
	}
	if ip := s.intField(f); ip != nil {
		*ip = Int(int(math.Round(v)))
	}
}

// Get returns the named field as a float and whether it is set.
func (s *DailyHealthSummary) Get(f Field) (float64, bool) {
	if fp := s.floatField(f); fp != nil && *fp != nil {
		return **fp, true
	}
	if ip := s.intField(f); ip != nil && *ip != nil {
		return float64(**ip), true
	}
	return 0, false
}

// Has reports whether the named field holds a value.
func (s *DailyHealthSummary) Has(f Field) bool {
	if fp := s.floatField(f); fp != nil {
		return *fp != nil
	}
	if ip := s.intField(f); ip != nil {
		return *ip != nil
	}
	return false
}

func (s *DailyHealthSummary) floatField(f Field) **float64 {
	switch f {
	case FieldSleepScore:
		return &s.SleepScore
	case FieldSleepDurationHours:
		return &s.SleepDurationHours
	case FieldDeepSleepHours:
		return &s.DeepSleepHours
	case FieldLightSleepHours:
		return &s.LightSleepHours
	case FieldRemSleepHours:
		return &s.RemSleepHours
	case FieldAwakeHours:
		return &s.AwakeHours
	case FieldHRVAvg:
		return &s.HRVAvg
	case FieldRestingHR:
		return &s.RestingHR
	case FieldStressAvg:
		return &s.StressAvg
	case FieldBodyBatteryHigh:
		return &s.BodyBatteryHigh
	case FieldBodyBatteryLow:
		return &s.BodyBatteryLow
	case FieldDistanceMeters:
		return &s.DistanceMeters
	}
	return nil
}

func (s *DailyHealthSummary) intField(f Field) **int {
	switch f {
	case FieldSteps:
		return &s.Steps
	case FieldActiveMinutes:
		return &s.ActiveMinutes
	case FieldCaloriesTotal:
		return &s.CaloriesTotal
	case FieldCaloriesActive:
		return &s.CaloriesActive
	}
	return nil
}

func patchFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func patchInt(dst **int, src *int) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
