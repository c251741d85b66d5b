// ABOUTME: Tests for the Garmin activity CSV parser.
// ABOUTME: Covers unit conversion, locale headers, quoting and row diagnostics.
package garmin

import (
	"math"
	"strings"
	"testing"
	"time"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in          string
		assumeMiles bool
		want        float64
		ok          bool
	}{
		{"3.1 mi", true, 4988.97, true},
		{"5", true, 8046.72, true},
		{"5km", true, 5000, true},
		{"5", false, 5000, true},
		{"1,200 m", true, 1200, true},
		{"2 miles", false, 3218.688, true},
		{"--", true, 0, false},
		{"far", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDistance(tt.in, tt.assumeMiles)
			if ok != tt.ok {
				t.Fatalf("parseDistance(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !approx(got, tt.want, 1) {
				t.Errorf("parseDistance(%q) = %f, want %f", tt.in, got, tt.want)
			}
		})
	}

	// Unitless distance with assumeMiles matches the explicit mile conversion.
	a, _ := parseDistance("3.1", true)
	b, _ := parseDistance("3.1 mi", true)
	if a != b {
		t.Errorf("unitless %f != explicit %f", a, b)
	}
	if km, _ := parseDistance("5km", true); km != 5000 {
		t.Errorf("5km = %f, want exactly 5000", km)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3600", 3600, true},
		{"01:02:03", 3723, true},
		{"45:30", 2730, true},
		{"00:30:15.5", 1815.5, true},
		{"1:2:3:4", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"00:Infinity", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDuration(tt.in)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("parseDuration(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"300", 300, true},
		{"1,234", 1234, true},
		{"152.6", 153, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"1e30", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseInt(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseInt(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseActivityCSVNonFiniteValues(t *testing.T) {
	text := "Activity Type,Date,Calories,Time\nRunning,2024-01-05,NaN,Inf\n"

	result := ParseActivityCSV(text, DefaultCSVOptions())
	if !result.Success || len(result.Activities) != 1 {
		t.Fatalf("expected the row to parse, got %+v", result)
	}
	a := result.Activities[0]
	if a.Calories != nil {
		t.Errorf("calories = %d, want unset", *a.Calories)
	}
	if a.DurationSeconds != nil {
		t.Errorf("duration = %v, want unset", *a.DurationSeconds)
	}
}

func TestParseSpeedAndPace(t *testing.T) {
	if v, ok := parseSpeed("10"); !ok || !approx(v, 4.4704, 1e-9) {
		t.Errorf("parseSpeed(10) = %v, want 4.4704 m/s", v)
	}
	if v, ok := parseSpeed("36 km/h"); !ok || !approx(v, 10, 1e-9) {
		t.Errorf("parseSpeed(36 km/h) = %v, want 10 m/s", v)
	}
	if v, ok := parseSpeed("3.5 m/s"); !ok || v != 3.5 {
		t.Errorf("parseSpeed(3.5 m/s) = %v, want 3.5", v)
	}
	if v, ok := parsePace("8:00", true); !ok || !approx(v, MetersPerMile/480, 1e-9) {
		t.Errorf("parsePace(8:00) = %v, want %v", v, MetersPerMile/480)
	}
	if v, ok := parsePace("5:00 /km", true); !ok || !approx(v, 1000.0/300, 1e-9) {
		t.Errorf("parsePace(5:00 /km) = %v, want %v", v, 1000.0/300)
	}
	if _, ok := parsePace("0:00", true); ok {
		t.Error("zero pace should be rejected")
	}
}

func TestParseActivityCSVEnglish(t *testing.T) {
	text := "Activity Type,Date,Favorite,Title,Distance,Calories,Time,Avg HR,Max HR,Avg Speed,Avg Pace,Total Ascent\r\n" +
		"Running,2024-01-02 07:15:00,false,\"Morning Run, Park\",3.10,320,00:28:30,148,171,--,9:12,\"1,050\"\r\n" +
		"\r\n" +
		"Cycling,1/3/2024,false,Commute,12.4,410,45:00,130,160,16.5,--,300\n"

	result := ParseActivityCSV(text, DefaultCSVOptions())
	if !result.Success {
		t.Fatalf("expected success, got %q (%v)", result.Message, result.Errors)
	}
	if len(result.Activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(result.Activities))
	}

	run := result.Activities[0]
	if run.ActivityType != "Running" {
		t.Errorf("ActivityType = %s, want Running", run.ActivityType)
	}
	if run.Name == nil || *run.Name != "Morning Run, Park" {
		t.Errorf("Name = %v, want quoted title with comma", run.Name)
	}
	wantStart := time.Date(2024, 1, 2, 7, 15, 0, 0, time.UTC)
	if !run.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", run.StartTime, wantStart)
	}
	if run.DistanceMeters == nil || !approx(*run.DistanceMeters, 4988.97, 1) {
		t.Errorf("DistanceMeters = %v, want ~4989", run.DistanceMeters)
	}
	if run.DurationSeconds == nil || *run.DurationSeconds != 1710 {
		t.Errorf("DurationSeconds = %v, want 1710", run.DurationSeconds)
	}
	if run.AvgHeartRate == nil || *run.AvgHeartRate != 148 {
		t.Errorf("AvgHeartRate = %v, want 148", run.AvgHeartRate)
	}
	if run.AvgSpeedMPS == nil || !approx(*run.AvgSpeedMPS, MetersPerMile/552, 1e-9) {
		t.Errorf("AvgSpeedMPS = %v, want pace-derived speed", run.AvgSpeedMPS)
	}
	if run.ElevationGainM == nil || !approx(*run.ElevationGainM, 1050*MetersPerFoot, 1e-9) {
		t.Errorf("ElevationGainM = %v, want %v", run.ElevationGainM, 1050*MetersPerFoot)
	}
	if run.RawData["Favorite"] != "false" {
		t.Errorf("RawData[Favorite] = %q, want false", run.RawData["Favorite"])
	}

	ride := result.Activities[1]
	if ride.AvgSpeedMPS == nil || !approx(*ride.AvgSpeedMPS, 16.5*MPSPerMPH, 1e-9) {
		t.Errorf("speed field should win over pace, got %v", ride.AvgSpeedMPS)
	}
	if ride.StartTime.Month() != time.January || ride.StartTime.Day() != 3 {
		t.Errorf("US slash date parsed as %v", ride.StartTime)
	}
}

func TestParseActivityCSVLocales(t *testing.T) {
	tests := []struct {
		name   string
		header string
		row    string
	}{
		{"german", "Aktivitätstyp,Datum,Titel,Distanz,Kalorien,Zeit", "Laufen,2024-01-05 06:00:00,Lauf,5 km,300,00:30:00"},
		{"french", "Type d'activité,Date,Titre,Distance,Calories,Durée", "Course,2024-01-05 06:00:00,Course,5 km,300,00:30:00"},
		{"mixed case", "ACTIVITY TYPE,DATE,TITLE,DISTANCE", "Walking,2024-01-05,Walk,5km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.header + "\n" + tt.row + "\n"
			if !IsGarminActivityCSV(text) {
				t.Errorf("IsGarminActivityCSV rejected %s header", tt.name)
			}
			result := ParseActivityCSV(text, DefaultCSVOptions())
			if !result.Success || len(result.Activities) != 1 {
				t.Fatalf("parse failed: %q %v", result.Message, result.Errors)
			}
			if d := result.Activities[0].DistanceMeters; d == nil || *d != 5000 {
				t.Errorf("DistanceMeters = %v, want 5000", d)
			}
		})
	}
}

func TestParseActivityCSVRowErrors(t *testing.T) {
	text := strings.Join([]string{
		"Activity Type,Date,Distance",
		"Running,2024-01-02,3",
		",2024-01-03,4",
		"Running,not a date,5",
		"Walking,--,1",
	}, "\n")

	result := ParseActivityCSV(text, DefaultCSVOptions())
	if !result.Success {
		t.Fatal("one good row should make the parse succeed")
	}
	if len(result.Activities) != 1 {
		t.Errorf("expected 1 activity, got %d", len(result.Activities))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 row errors, got %v", result.Errors)
	}
	wantRows := []int{3, 4, 5}
	for i, e := range result.Errors {
		if e.Row != wantRows[i] {
			t.Errorf("error %d row = %d, want %d", i, e.Row, wantRows[i])
		}
		if e.Message == "" {
			t.Errorf("error %d has empty message", i)
		}
	}
}

func TestParseActivityCSVFailures(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantMessage string
	}{
		{"empty", "  \n", "empty"},
		{"missing columns", "Title,Distance\nRun,3\n", "Activity Type, Date"},
		{"missing date column", "Activity Type,Distance\nRunning,3\n", "Date"},
		{"header only", "Activity Type,Date\n", "no activity rows"},
		{"all rows bad", "Activity Type,Date\n,2024-01-01\n", "no valid activities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseActivityCSV(tt.text, DefaultCSVOptions())
			if result.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want it to mention %q", result.Message, tt.wantMessage)
			}
		})
	}
}

func TestIsGarminActivityCSV(t *testing.T) {
	if IsGarminActivityCSV("name,email\nActivity Type,Date\n") {
		t.Error("only the first line should be inspected")
	}
	if !IsGarminActivityCSV("\ufeffActivity Type,Date\r\nRunning,2024-01-01") {
		t.Error("BOM-prefixed header should be accepted")
	}
}
