// ABOUTME: Tests for daily summary, metric, protocol and dose models.
// ABOUTME: Covers patch semantics, generic field access, and weekday parsing.
package models

import (
	"testing"
	"time"
)

func TestDailySummaryPatchKeepsExisting(t *testing.T) {
	s := NewDailyHealthSummary("2024-01-02")
	s.Steps = Int(9000)
	s.HRVAvg = Float(48)

	p := NewDailyHealthSummary("2024-01-02")
	p.HRVAvg = Float(55)
	p.SleepScore = Float(81)

	s.Patch(p)

	if s.Steps == nil || *s.Steps != 9000 {
		t.Errorf("Steps = %v, want 9000", s.Steps)
	}
	if s.HRVAvg == nil || *s.HRVAvg != 55 {
		t.Errorf("HRVAvg = %v, want 55", s.HRVAvg)
	}
	if s.SleepScore == nil || *s.SleepScore != 81 {
		t.Errorf("SleepScore = %v, want 81", s.SleepScore)
	}

	// Patch copies values, not pointers
	*p.HRVAvg = 1
	if *s.HRVAvg != 55 {
		t.Error("Patch aliased the source pointer")
	}
}

func TestDailySummaryPatchRanked(t *testing.T) {
	order := []string{"daily_summary", "activities"}
	rank := func(f Field, src string) (int, bool) {
		if f != FieldCaloriesTotal {
			return 0, false
		}
		for i, o := range order {
			if o == src {
				return i, true
			}
		}
		return len(order), true
	}

	s := NewDailyHealthSummary("2024-01-02")
	s.CaloriesTotal = Int(2500)
	s.SetSource(FieldCaloriesTotal, "daily_summary")

	p := NewDailyHealthSummary("2024-01-02")
	p.CaloriesTotal = Int(300)
	p.Steps = Int(4000)
	p.SetSource(FieldCaloriesTotal, "activities")
	p.SetSource(FieldSteps, "activities")

	s.PatchRanked(p, rank)

	if *s.CaloriesTotal != 2500 || s.Sources[FieldCaloriesTotal] != "daily_summary" {
		t.Errorf("calories = %d from %q, want 2500 from daily_summary", *s.CaloriesTotal, s.Sources[FieldCaloriesTotal])
	}
	if s.Steps == nil || *s.Steps != 4000 || s.Sources[FieldSteps] != "activities" {
		t.Errorf("untabled field should be last writer wins, got %v", s.Steps)
	}

	if v, ok := s.Get(FieldCaloriesTotal); !ok || v != 2500 {
		t.Errorf("Get(calories) = %v, %v", v, ok)
	}
	if _, ok := s.Get(FieldHRVAvg); ok {
		t.Error("Get on an unset field should report false")
	}
}

func TestDailySummarySetAndHas(t *testing.T) {
	tests := []struct {
		field Field
		value float64
	}{
		{FieldSleepScore, 80},
		{FieldHRVAvg, 61.5},
		{FieldSteps, 1234.6},
		{FieldCaloriesTotal, 2100},
		{FieldDistanceMeters, 4000.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			s := NewDailyHealthSummary("2024-01-01")
			if s.Has(tt.field) {
				t.Fatalf("new summary already has %s", tt.field)
			}
			s.Set(tt.field, tt.value)
			if !s.Has(tt.field) {
				t.Errorf("Has(%s) = false after Set", tt.field)
			}
		})
	}

	s := NewDailyHealthSummary("2024-01-01")
	s.Set(FieldSteps, 1234.6)
	if *s.Steps != 1235 {
		t.Errorf("Steps = %d, want 1235", *s.Steps)
	}
	s.Set(Field("bogus"), 1)
	if s.Has(Field("bogus")) {
		t.Error("unknown field should never be set")
	}
}

func TestHasBiometrics(t *testing.T) {
	s := NewDailyHealthSummary("2024-01-01")
	if s.HasBiometrics() {
		t.Error("empty summary should not have biometrics")
	}
	s.ActiveMinutes = Int(0)
	if !s.HasBiometrics() {
		t.Error("explicit zero is a value, not absence")
	}
}

func TestMetricValue(t *testing.T) {
	s := &DailyHealthSummary{Date: "2024-01-01", BodyBatteryHigh: Float(88), Steps: Int(5000)}

	if v, ok := MetricBodyBattery.Value(s); !ok || v != 88 {
		t.Errorf("body battery = %v,%v want 88,true", v, ok)
	}
	if v, ok := MetricSteps.Value(s); !ok || v != 5000 {
		t.Errorf("steps = %v,%v want 5000,true", v, ok)
	}
	if _, ok := MetricHRV.Value(s); ok {
		t.Error("hrv should be absent")
	}
}

func TestAllMetricsHaveUnitsAndPolarity(t *testing.T) {
	for _, m := range AllMetrics {
		if _, ok := MetricUnits[m]; !ok {
			t.Errorf("metric %s has no unit", m)
		}
		if _, ok := HigherIsBetter[m]; !ok {
			t.Errorf("metric %s has no polarity", m)
		}
		if !IsValidMetric(string(m)) {
			t.Errorf("IsValidMetric(%s) = false", m)
		}
	}
	if IsValidMetric("weight") {
		t.Error("weight is not a biometric metric")
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in      string
		want    []time.Weekday
		wantErr bool
	}{
		{"1,3,5", []time.Weekday{time.Monday, time.Wednesday, time.Friday}, false},
		{"fri, mon", []time.Weekday{time.Monday, time.Friday}, false},
		{"Sunday,sun,0", []time.Weekday{time.Sunday}, false},
		{"", nil, false},
		{"7", nil, true},
		{"funday", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekdays(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekdays(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseWeekdays(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseWeekdays(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}

	if s := FormatWeekdays([]time.Weekday{time.Monday, time.Friday}); s != "1,5" {
		t.Errorf("FormatWeekdays = %q, want 1,5", s)
	}
}

func TestProtocolValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       *Protocol
		wantErr bool
	}{
		{"daily", NewProtocol("BPC", "BPC-157", "250mcg"), false},
		{"weekdays", NewProtocol("TB", "TB-500", "2mg").WithWeekdays(time.Monday), false},
		{"weekdays empty", NewProtocol("TB", "TB-500", "2mg").WithWeekdays(), true},
		{"interval", NewProtocol("Ipa", "Ipamorelin", "100mcg").WithInterval(3), false},
		{"interval zero", NewProtocol("Ipa", "Ipamorelin", "100mcg").WithInterval(0), true},
		{"cycle", NewProtocol("Sema", "Semax", "300mcg").WithCycle(5, 2, nil), false},
		{"cycle no on days", NewProtocol("Sema", "Semax", "300mcg").WithCycle(0, 2, nil), true},
		{"no peptide", NewProtocol("x", " ", "1mg"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDoseLog(t *testing.T) {
	p := NewProtocol("BPC", "BPC-157", "250mcg")
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	taken := NewDoseLog(p, day, DoseTaken)
	if taken.TakenAt == nil {
		t.Error("taken dose should have TakenAt")
	}
	if taken.ProtocolID != p.ID || taken.PeptideName != "BPC-157" {
		t.Errorf("dose not linked to protocol: %+v", taken)
	}
	if taken.Date() != "2024-01-05" {
		t.Errorf("Date() = %s, want 2024-01-05", taken.Date())
	}

	skipped := NewDoseLog(p, day, DoseSkipped).WithDoseNumber(2)
	if skipped.TakenAt != nil {
		t.Error("skipped dose should not have TakenAt")
	}
	if skipped.DoseNumber != 2 {
		t.Errorf("DoseNumber = %d, want 2", skipped.DoseNumber)
	}
}
