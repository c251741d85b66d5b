// ABOUTME: Tests for FIT activity decoding.
// ABOUTME: Encodes a synthetic activity with one session and decodes it back.
package garmin

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

func buildTestFIT(t *testing.T, start time.Time) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	record := fit.NewRecordMsg()
	record.Timestamp = start.Add(30 * time.Second)
	record.HeartRate = 140
	activity.Records = append(activity.Records, record)

	session := fit.NewSessionMsg()
	session.Timestamp = start.Add(30 * time.Minute)
	session.StartTime = start
	session.Sport = fit.SportRunning
	session.TotalTimerTime = 1800000 // ms
	session.TotalDistance = 500000   // cm
	session.TotalCalories = 410
	session.AvgHeartRate = 152
	session.MaxHeartRate = 178
	session.TotalAscent = 35
	activity.Sessions = append(activity.Sessions, session)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestParseFIT(t *testing.T) {
	start := time.Date(2024, 1, 4, 6, 30, 0, 0, time.UTC)
	data := buildTestFIT(t, start)

	if !IsFIT(data) {
		t.Fatal("IsFIT rejected an encoded FIT file")
	}

	a, err := ParseFIT(data)
	if err != nil {
		t.Fatalf("ParseFIT failed: %v", err)
	}
	if a.ActivityType != "running" {
		t.Errorf("ActivityType = %s, want running", a.ActivityType)
	}
	if !a.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", a.StartTime, start)
	}
	if a.DurationSeconds == nil || *a.DurationSeconds != 1800 {
		t.Errorf("DurationSeconds = %v, want 1800", a.DurationSeconds)
	}
	if a.DistanceMeters == nil || *a.DistanceMeters != 5000 {
		t.Errorf("DistanceMeters = %v, want 5000", a.DistanceMeters)
	}
	if a.Calories == nil || *a.Calories != 410 {
		t.Errorf("Calories = %v, want 410", a.Calories)
	}
	if a.AvgHeartRate == nil || *a.AvgHeartRate != 152 {
		t.Errorf("AvgHeartRate = %v, want 152", a.AvgHeartRate)
	}
	if a.ElevationGainM == nil || *a.ElevationGainM != 35 {
		t.Errorf("ElevationGainM = %v, want 35", a.ElevationGainM)
	}
	if a.AvgSpeedMPS != nil {
		t.Errorf("AvgSpeedMPS = %v, want unset for invalid speed fields", *a.AvgSpeedMPS)
	}
}

func TestParseFITMalformed(t *testing.T) {
	if _, err := ParseFIT([]byte("not a fit file at all")); err == nil {
		t.Error("expected error for malformed FIT data")
	}
	if IsFIT([]byte("short")) {
		t.Error("IsFIT accepted a short buffer")
	}
}
