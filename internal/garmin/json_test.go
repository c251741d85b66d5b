// ABOUTME: Tests for the Garmin JSON export parser.
// ABOUTME: Covers shape normalization, date extraction and typed record decoding.
package garmin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestParseExportJSONInvalid(t *testing.T) {
	pf := ParseExportJSON([]byte("{not json"), "2024-01-01_2024-01-07_1_sleepData.json")
	if pf.Type != TypeUnknown {
		t.Errorf("Type = %s, want unknown", pf.Type)
	}
	if len(pf.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(pf.Entries))
	}
}

func TestParseExportJSONShapes(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		content   string
		wantType  DataType
		wantDates []string
	}{
		{
			name:      "array",
			filename:  "2024-01-01_2024-01-07_1_sleepData.json",
			content:   `[{"calendarDate":"2024-01-01","deepSleepSeconds":3600},{"calendarDate":"2024-01-02"}]`,
			wantType:  TypeSleep,
			wantDates: []string{"2024-01-01", "2024-01-02"},
		},
		{
			name:      "container key",
			filename:  "hrv.json",
			content:   `{"hrvValues":[{"calendarDate":"2024-02-01","lastNightAvg":52}]}`,
			wantType:  TypeHRV,
			wantDates: []string{"2024-02-01"},
		},
		{
			name:      "single dated object",
			filename:  "export.json",
			content:   `{"summaryDate":"2024-03-03T00:00:00","totalSteps":1200}`,
			wantType:  TypeDailySummary,
			wantDates: []string{"2024-03-03"},
		},
		{
			name:      "undated dropped",
			filename:  "export.json",
			content:   `[{"overallStressLevel":30},{"date":"2024-03-04","overallStressLevel":25}]`,
			wantType:  TypeStress,
			wantDates: []string{"2024-03-04"},
		},
		{
			name:      "epoch milliseconds",
			filename:  "data.json",
			content:   `[{"sleepStartTimestampGMT":1704146400000,"sleepTimeSeconds":28000}]`,
			wantType:  TypeSleep,
			wantDates: []string{"2024-01-01"},
		},
		{
			name:      "epoch seconds",
			filename:  "data.json",
			content:   `[{"timestamp":1704153600,"startOfDayBodyBattery":80}]`,
			wantType:  TypeBodyBattery,
			wantDates: []string{"2024-01-02"},
		},
		{
			name:      "unrecognized shape",
			filename:  "data.json",
			content:   `{"foo":{"bar":1}}`,
			wantType:  TypeUnknown,
			wantDates: nil,
		},
		{
			name:      "health status by structure",
			filename:  "data.json",
			content:   `[{"calendarDate":"2024-01-05","metrics":[{"type":"HRV","value":44}]}]`,
			wantType:  TypeHealthStatus,
			wantDates: []string{"2024-01-05"},
		},
		{
			name:      "content overrides filename",
			filename:  "2024-01-01_2024-01-07_1_hrv_status.json",
			content:   `[{"calendarDate":"2024-01-05","metrics":[{"type":"HRV","value":44}]}]`,
			wantType:  TypeHealthStatus,
			wantDates: []string{"2024-01-05"},
		},
		{
			name:      "filename kept without conflicting hints",
			filename:  "stress_2024-01-01_2024-01-07.json",
			content:   `[{"calendarDate":"2024-01-05","averageStressLevel":30}]`,
			wantType:  TypeStress,
			wantDates: []string{"2024-01-05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := ParseExportJSON([]byte(tt.content), tt.filename)
			if pf.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", pf.Type, tt.wantType)
			}
			if len(pf.Entries) != len(tt.wantDates) {
				t.Fatalf("got %d entries, want %d", len(pf.Entries), len(tt.wantDates))
			}
			for i, e := range pf.Entries {
				if e.Date != tt.wantDates[i] {
					t.Errorf("entry %d date = %s, want %s", i, e.Date, tt.wantDates[i])
				}
				if e.Raw == nil {
					t.Errorf("entry %d lost its raw content", i)
				}
				if e.Record == nil || e.Record.DataType() != tt.wantType {
					t.Errorf("entry %d record = %#v, want %s variant", i, e.Record, tt.wantType)
				}
			}
		})
	}
}

func TestDecodeSleepScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"overallScore", `[{"calendarDate":"2024-01-01","sleepScores":{"overallScore":84}}]`, 84},
		{"overall value", `[{"calendarDate":"2024-01-01","sleepScores":{"overall":{"value":77}}}]`, 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := ParseExportJSON([]byte(tt.content), "sleepData.json")
			rec, ok := pf.Entries[0].Record.(SleepRecord)
			if !ok {
				t.Fatalf("record is %T, want SleepRecord", pf.Entries[0].Record)
			}
			if rec.Score == nil || *rec.Score != tt.want {
				t.Errorf("Score = %v, want %v", rec.Score, tt.want)
			}
		})
	}
}

func TestDecodeAggregatorDailySummary(t *testing.T) {
	content := `[{
		"calendarDate": "2024-01-02",
		"totalSteps": 9000,
		"activeKilocalories": 500,
		"bmrKilocalories": 1700,
		"moderateIntensityMinutes": 20,
		"vigorousIntensityMinutes": 10,
		"restingHeartRate": 52,
		"allDayStress": {"aggregatorList": [
			{"type": "AWAKE", "averageStressLevel": 40},
			{"type": "TOTAL", "averageStressLevel": 31}
		]},
		"bodyBattery": {"bodyBatteryStatList": [
			{"bodyBatteryStatType": "HIGHEST", "statsValue": 95},
			{"bodyBatteryStatType": "LOWEST", "statsValue": 12}
		]}
	}]`

	pf := ParseExportJSON([]byte(content), "UDSFile_2024-01-01_2024-01-31.json")
	rec, ok := pf.Entries[0].Record.(DailySummaryRecord)
	if !ok {
		t.Fatalf("record is %T, want DailySummaryRecord", pf.Entries[0].Record)
	}
	checks := map[string]struct {
		got  *float64
		want float64
	}{
		"steps":  {rec.Steps, 9000},
		"stress": {rec.StressAvg, 31},
		"bbHigh": {rec.BodyBatteryHigh, 95},
		"bbLow":  {rec.BodyBatteryLow, 12},
		"rhr":    {rec.RestingHR, 52},
	}
	for name, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v, want %v", name, c.got, c.want)
		}
	}
}

func TestParseActivitiesJSON(t *testing.T) {
	content := `[{"summarizedActivitiesExport":[
		{"activityId":1,"name":"Easy Run","activityType":"running","startTimeGmt":1704186000000,
		 "duration":1800000,"distance":500000,"calories":350,"avgHr":145,"maxHr":170,
		 "avgSpeed":0.2778,"elevationGain":4200},
		{"activityId":2,"name":"No type"}
	]}]`

	activities := ParseActivitiesJSON([]byte(content))
	if len(activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities))
	}
	a := activities[0]
	if a.ActivityType != "running" || a.Date() != "2024-01-02" {
		t.Errorf("got %s on %s, want running on 2024-01-02", a.ActivityType, a.Date())
	}
	if *a.DurationSeconds != 1800 {
		t.Errorf("DurationSeconds = %v, want 1800", *a.DurationSeconds)
	}
	if *a.DistanceMeters != 5000 {
		t.Errorf("DistanceMeters = %v, want 5000", *a.DistanceMeters)
	}
	if *a.ElevationGainM != 42 {
		t.Errorf("ElevationGainM = %v, want 42", *a.ElevationGainM)
	}
	if !approx(*a.AvgSpeedMPS, 2.778, 1e-9) {
		t.Errorf("AvgSpeedMPS = %v, want 2.778", *a.AvgSpeedMPS)
	}
	if a.RawData["activityId"] != "1" {
		t.Errorf("RawData[activityId] = %q, want 1", a.RawData["activityId"])
	}

	if ParseActivitiesJSON([]byte("nope")) != nil {
		t.Error("invalid JSON should yield no activities")
	}
}

func TestNumberRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 52.0, models.Float(52)},
		{"numeric string", " 48.5 ", models.Float(48.5)},
		{"NaN string", "NaN", nil},
		{"Inf string", "Inf", nil},
		{"negative Infinity string", "-Infinity", nil},
		{"NaN float", math.NaN(), nil},
		{"overflowing number", json.Number("1e400"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := number(map[string]any{"v": tt.in}, "v")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("number(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseExportJSONNonFiniteHRV(t *testing.T) {
	content := `[{"calendarDate":"2024-01-05","lastNightAvg":"NaN"},{"calendarDate":"2024-01-06","lastNightAvg":"51"}]`
	pf := ParseExportJSON([]byte(content), "x_hrvData.json")

	m := NewMerger()
	m.AddFile(pf)
	days := m.Days()
	if v := days["2024-01-05"]; v != nil && v.HRVAvg != nil {
		t.Errorf("HRV for 2024-01-05 = %v, want unset", *v.HRVAvg)
	}
	if v := days["2024-01-06"]; v == nil || v.HRVAvg == nil || *v.HRVAvg != 51 {
		t.Errorf("HRV for 2024-01-06 = %+v, want 51", v)
	}
	if _, err := json.Marshal(m.Summaries("u1")); err != nil {
		t.Errorf("merged rows must encode: %v", err)
	}
}
