// ABOUTME: Tests for the import pipeline using an in-memory store and generated archives.
// ABOUTME: Checks kind detection, archive windows, diagnostics capping and storage failures.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/tormoder/fit"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	users      []string
	summaries  []models.DailyHealthSummary
	activities []*models.ParsedActivity
	err        error
}

func (f *fakeStore) UpsertDailySummaries(userID string, patches []models.DailyHealthSummary) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.users = append(f.users, userID)
	f.summaries = append(f.summaries, patches...)
	return len(patches), nil
}

func (f *fakeStore) SaveActivities(userID string, activities []*models.ParsedActivity) (*storage.SaveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.activities = append(f.activities, activities...)
	return &storage.SaveResult{Inserted: len(activities)}, nil
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

const (
	sleepJSON = `[
		{"calendarDate":"2024-01-01","deepSleepSeconds":5400,"lightSleepSeconds":14400,"remSleepSeconds":7200,"awakeSleepSeconds":1800},
		{"calendarDate":"2024-01-02","deepSleepSeconds":7200,"lightSleepSeconds":12600,"remSleepSeconds":7200,"awakeSleepSeconds":1800},
		{"calendarDate":"2024-01-03","deepSleepSeconds":3600,"lightSleepSeconds":16200,"remSleepSeconds":7200,"awakeSleepSeconds":1800}
	]`
	dailyJSON      = `[{"calendarDate":"2024-01-02","totalSteps":9000}]`
	activitiesJSON = `[{"summarizedActivitiesExport":[
		{"activityId":1,"name":"Easy Run","activityType":"running","startTimeGmt":1704186000000,"duration":1800000,"distance":500000}
	]}]`
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestImporter(store Store) *Importer {
	return New(store, Options{
		UserID: "u1",
		CSV:    garmin.DefaultCSVOptions(),
		Now:    func() time.Time { return testNow },
	})
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want Kind
	}{
		{"zip magic", "export", "PK\x03\x04rest", KindZip},
		{"fit magic", "ride.bin", "\x0e\x20\x00\x00\x00\x00\x00\x00.FIT", KindFIT},
		{"json array", "data.txt", "  [1,2]", KindJSON},
		{"json object", "x", "{}", KindJSON},
		{"garmin csv", "a.txt", "Activity Type,Date\nRunning,2024-01-01", KindCSV},
		{"csv by extension", "export.csv", "foo,bar", KindCSV},
		{"unknown", "notes.txt", "hello", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.file, []byte(tt.data)); got != tt.want {
				t.Errorf("DetectKind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestImportArchive(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"DI_CONNECT/DI-Connect-Wellness/2024-01-01_2024-01-07_999_sleepData.json": sleepJSON,
		"DI_CONNECT/DI-Connect-Aggregator/UDSFile_2024-01-01_2024-01-31.json":     dailyJSON,
		"DI_CONNECT/DI-Connect-Fitness/user_summarizedActivities.json":            activitiesJSON,
		"DI_CONNECT/DI-Connect-Wellness/2020-01-01_2020-01-31_999_sleepData.json": sleepJSON,
		"README.txt": "hello",
	})

	store := &fakeStore{}
	res, err := newTestImporter(store).ImportFile(context.Background(), "export.zip", data)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q %v", res.Message, res.Errors)
	}

	if res.Kind != KindZip || res.FilesScanned != 5 || res.FilesSkipped != 2 || res.FilesParsed != 3 {
		t.Errorf("counts = kind %s scanned %d skipped %d parsed %d", res.Kind, res.FilesScanned, res.FilesSkipped, res.FilesParsed)
	}
	wantTypes := []garmin.DataType{garmin.TypeActivities, garmin.TypeDailySummary, garmin.TypeSleep}
	if diff := cmp.Diff(wantTypes, res.DataTypes); diff != "" {
		t.Errorf("data types mismatch (-want +got):\n%s", diff)
	}

	if res.DaysSaved != 3 || len(store.summaries) != 3 {
		t.Fatalf("expected 3 saved days, got %d (%d in store)", res.DaysSaved, len(store.summaries))
	}
	if store.users[0] != "u1" {
		t.Errorf("saved for user %q, want u1", store.users[0])
	}
	jan2 := store.summaries[1]
	if jan2.Date != "2024-01-02" || jan2.Steps == nil || *jan2.Steps != 9000 {
		t.Errorf("2024-01-02 steps missing: %+v", jan2)
	}
	if jan2.SleepDurationHours == nil || *jan2.SleepDurationHours != 8 {
		t.Errorf("2024-01-02 sleep = %v, want 8", jan2.SleepDurationHours)
	}
	if jan2.DistanceMeters == nil || *jan2.DistanceMeters != 5000 {
		t.Errorf("2024-01-02 distance = %v, want 5000 from the run", jan2.DistanceMeters)
	}

	if res.ActivitiesInserted != 1 || len(store.activities) != 1 || store.activities[0].UserID != "u1" {
		t.Errorf("expected one activity saved for u1, got %d", len(store.activities))
	}
}

func TestImportArchiveNothingRelevant(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"README.txt": "hello",
		"DI_CONNECT/DI-Connect-Wellness/2020-01-01_2020-01-31_999_sleepData.json": sleepJSON,
	})

	store := &fakeStore{}
	res, err := newTestImporter(store).ImportFile(context.Background(), "export.zip", data)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Message, "no relevant health data files") {
		t.Errorf("unexpected message %q", res.Message)
	}
	if len(store.summaries) != 0 {
		t.Error("nothing should be saved")
	}
}

func TestImportCorruptArchive(t *testing.T) {
	_, err := newTestImporter(&fakeStore{}).ImportFile(context.Background(), "export.zip", []byte("PK\x03\x04not really a zip"))
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}

func TestImportArchiveCancelled(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"DI_CONNECT/DI-Connect-Wellness/2024-01-01_2024-01-07_999_sleepData.json": sleepJSON,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	_, err := newTestImporter(store).ImportFile(ctx, "export.zip", data)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.summaries) != 0 {
		t.Error("cancelled import must not save")
	}
}

func TestImportCSVCapsDiagnostics(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Activity Type,Date,Title,Distance,Time\n")
	sb.WriteString("Running,2024-01-02 07:15:00,Run,5.0,00:30:00\n")
	for i := 0; i < 7; i++ {
		sb.WriteString(fmt.Sprintf("Running,garbage-%d,Bad,1,00:10:00\n", i))
	}

	store := &fakeStore{}
	res, err := newTestImporter(store).ImportFile(context.Background(), "Activities.csv", []byte(sb.String()))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.ErrorCount != 7 || len(res.Errors) != MaxReportedErrors {
		t.Errorf("errors = %d reported of %d, want %d of 7", len(res.Errors), res.ErrorCount, MaxReportedErrors)
	}
	if !strings.HasPrefix(res.Errors[0], "row 3") {
		t.Errorf("first diagnostic %q should name row 3", res.Errors[0])
	}
	if len(store.activities) != 1 || len(store.summaries) != 1 {
		t.Errorf("expected 1 activity and 1 day saved, got %d and %d", len(store.activities), len(store.summaries))
	}
}

func TestImportCSVMissingColumns(t *testing.T) {
	res, err := newTestImporter(&fakeStore{}).ImportFile(context.Background(), "x.csv", []byte("Title,Distance\nRun,5\n"))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Success || !strings.Contains(res.Message, "missing required columns") {
		t.Errorf("expected missing columns failure, got %+v", res)
	}
}

func TestImportSingleJSON(t *testing.T) {
	store := &fakeStore{}
	res, err := newTestImporter(store).ImportFile(context.Background(), "2024-01-01_2024-01-07_999_sleepData.json", []byte(sleepJSON))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if !res.Success || res.DaysSaved != 3 {
		t.Errorf("expected 3 days saved, got %+v", res)
	}

	res, err = newTestImporter(store).ImportFile(context.Background(), "mystery.json", []byte(`{"hello":"world"}`))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Success || len(res.Errors) != 1 {
		t.Errorf("expected failure with one diagnostic, got %+v", res)
	}
}

func TestImportPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "2024-01-01_2024-01-07_999_sleepData.json")
	if err := os.WriteFile(file, []byte(sleepJSON), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := &fakeStore{}
	res, err := newTestImporter(store).ImportPath(context.Background(), file)
	if err != nil {
		t.Fatalf("ImportPath failed: %v", err)
	}
	if res.FileName != "2024-01-01_2024-01-07_999_sleepData.json" || res.DaysSaved != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := newTestImporter(store).ImportPath(context.Background(), filepath.Join(dir, "missing.zip")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestImportFIT(t *testing.T) {
	start := time.Date(2024, 1, 4, 6, 30, 0, 0, time.UTC)
	store := &fakeStore{}
	res, err := newTestImporter(store).ImportFile(context.Background(), "run.fit", buildFIT(t, start))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if !res.Success || res.Kind != KindFIT {
		t.Fatalf("expected FIT success, got %+v", res)
	}
	if len(store.activities) != 1 || !store.activities[0].StartTime.Equal(start) {
		t.Errorf("activity not saved with start %v", start)
	}
	if len(store.summaries) != 1 || store.summaries[0].Date != "2024-01-04" {
		t.Errorf("expected one daily row for 2024-01-04, got %+v", store.summaries)
	}
}

func TestImportStoreFailureKeepsResult(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	res, err := newTestImporter(store).ImportFile(context.Background(), "2024-01-01_2024-01-07_999_sleepData.json", []byte(sleepJSON))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if res == nil || len(res.Summaries) != 3 {
		t.Fatal("parsed days must be returned alongside the storage error")
	}
	if res.Success {
		t.Error("result should not report success")
	}
}

func TestImportWithoutStoreOnlyParses(t *testing.T) {
	res, err := New(nil, Options{}).ImportFile(context.Background(), "2024-01-01_2024-01-07_999_sleepData.json", []byte(sleepJSON))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if !res.Success || res.DaysSaved != 0 || len(res.Summaries) != 3 {
		t.Errorf("expected parsed but unsaved result, got %+v", res)
	}
	if res.Summaries[0].UserID != "local" {
		t.Errorf("default user = %q, want local", res.Summaries[0].UserID)
	}
}

func TestImportUnsupported(t *testing.T) {
	res, err := newTestImporter(&fakeStore{}).ImportFile(context.Background(), "notes.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Success || !strings.Contains(res.Message, "unsupported file") {
		t.Errorf("unexpected result %+v", res)
	}
}

func buildFIT(t *testing.T, start time.Time) []byte {
	t.Helper()

	file, err := fit.NewFile(fit.FileTypeActivity, fit.NewHeader(fit.V20, true))
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	session := fit.NewSessionMsg()
	session.Timestamp = start.Add(30 * time.Minute)
	session.StartTime = start
	session.Sport = fit.SportRunning
	session.TotalTimerTime = 1800000
	session.TotalDistance = 500000
	activity.Sessions = append(activity.Sessions, session)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestImportActivitiesKeepStoredDailyTotals(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "pepmetrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	const (
		udsName  = "UDSFile_2024-01-01_2024-01-10.json"
		firstDay = `[{"calendarDate":"2024-01-05","totalSteps":12000,"activeKilocalories":800,"bmrKilocalories":1700,"totalDistanceMeters":9000}]`
		nextDay  = `[{"calendarDate":"2024-01-06","totalSteps":8000,"activeKilocalories":600,"bmrKilocalories":1700,"totalDistanceMeters":7000}]`
		runsCSV  = "Activity Type,Date,Title,Distance,Time,Calories\n" +
			"Running,2024-01-05 07:00:00,Morning Run,3 km,00:20:00,300\n"
		laterCSV = "Activity Type,Date,Title,Distance,Time,Calories\n" +
			"Running,2024-01-06 07:00:00,Morning Run,4 km,00:25:00,350\n"
	)
	im := newTestImporter(db)
	ctx := context.Background()

	// Daily summary first, workout second: the summary's totals survive.
	if _, err := im.ImportFile(ctx, udsName, []byte(firstDay)); err != nil {
		t.Fatalf("import daily summary: %v", err)
	}
	if _, err := im.ImportFile(ctx, "a.csv", []byte(runsCSV)); err != nil {
		t.Fatalf("import csv: %v", err)
	}

	day, err := db.GetDailySummary("u1", "2024-01-05")
	if err != nil {
		t.Fatalf("GetDailySummary failed: %v", err)
	}
	if *day.CaloriesTotal != 2500 || *day.CaloriesActive != 800 {
		t.Errorf("calories = %d/%d, want 2500/800 from the daily summary", *day.CaloriesTotal, *day.CaloriesActive)
	}
	if *day.DistanceMeters != 9000 {
		t.Errorf("distance = %v, want 9000", *day.DistanceMeters)
	}
	if *day.Steps != 12000 {
		t.Errorf("steps = %d, want 12000", *day.Steps)
	}
	// Fields the summary never set are still filled by the workout.
	if day.ActiveMinutes == nil || *day.ActiveMinutes != 20 {
		t.Errorf("active minutes = %v, want 20 from the workout", day.ActiveMinutes)
	}

	// Workout first, daily summary second: the summary replaces the totals.
	if _, err := im.ImportFile(ctx, "b.csv", []byte(laterCSV)); err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if _, err := im.ImportFile(ctx, udsName, []byte(nextDay)); err != nil {
		t.Fatalf("import daily summary: %v", err)
	}
	day, err = db.GetDailySummary("u1", "2024-01-06")
	if err != nil {
		t.Fatalf("GetDailySummary failed: %v", err)
	}
	if *day.CaloriesTotal != 2300 || *day.DistanceMeters != 7000 {
		t.Errorf("calories/distance = %d/%v, want 2300/7000", *day.CaloriesTotal, *day.DistanceMeters)
	}
}
