// ABOUTME: Parquet export of daily summaries for notebooks and data tools.
// ABOUTME: Missing metrics are written as NaN so every column stays required.
package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type dailyParquetRow struct {
	Date               string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SleepScore         float64 `parquet:"name=sleep_score, type=DOUBLE"`
	SleepDurationHours float64 `parquet:"name=sleep_duration_hours, type=DOUBLE"`
	DeepSleepHours     float64 `parquet:"name=deep_sleep_hours, type=DOUBLE"`
	LightSleepHours    float64 `parquet:"name=light_sleep_hours, type=DOUBLE"`
	RemSleepHours      float64 `parquet:"name=rem_sleep_hours, type=DOUBLE"`
	AwakeHours         float64 `parquet:"name=awake_hours, type=DOUBLE"`
	HRVAvg             float64 `parquet:"name=hrv_avg, type=DOUBLE"`
	RestingHR          float64 `parquet:"name=resting_hr, type=DOUBLE"`
	StressAvg          float64 `parquet:"name=stress_avg, type=DOUBLE"`
	BodyBatteryHigh    float64 `parquet:"name=body_battery_high, type=DOUBLE"`
	BodyBatteryLow     float64 `parquet:"name=body_battery_low, type=DOUBLE"`
	Steps              float64 `parquet:"name=steps, type=DOUBLE"`
	ActiveMinutes      float64 `parquet:"name=active_minutes, type=DOUBLE"`
	CaloriesTotal      float64 `parquet:"name=calories_total, type=DOUBLE"`
	CaloriesActive     float64 `parquet:"name=calories_active, type=DOUBLE"`
	DistanceMeters     float64 `parquet:"name=distance_meters, type=DOUBLE"`
	DosesTaken         int64   `parquet:"name=doses_taken, type=INT64"`
}

// ExportParquet writes the user's daily rows, one per date, with the count
// of doses taken that day.
func (d *DB) ExportParquet(userID string) ([]byte, error) {
	days, err := d.ListDailySummaries(userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	doses, err := d.ListDoseLogs(userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return MarshalDailyParquet(days, doses)
}

// MarshalDailyParquet encodes daily rows as a snappy-compressed parquet file.
func MarshalDailyParquet(days []models.DailyHealthSummary, doses []models.DoseLog) ([]byte, error) {
	taken := make(map[string]int64)
	for _, dl := range doses {
		if dl.Status == models.DoseTaken {
			taken[dl.Date()]++
		}
	}

	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(dailyParquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range days {
		s := &days[i]
		row := dailyParquetRow{
			Date:               s.Date,
			SleepScore:         orNaN(s.SleepScore),
			SleepDurationHours: orNaN(s.SleepDurationHours),
			DeepSleepHours:     orNaN(s.DeepSleepHours),
			LightSleepHours:    orNaN(s.LightSleepHours),
			RemSleepHours:      orNaN(s.RemSleepHours),
			AwakeHours:         orNaN(s.AwakeHours),
			HRVAvg:             orNaN(s.HRVAvg),
			RestingHR:          orNaN(s.RestingHR),
			StressAvg:          orNaN(s.StressAvg),
			BodyBatteryHigh:    orNaN(s.BodyBatteryHigh),
			BodyBatteryLow:     orNaN(s.BodyBatteryLow),
			Steps:              intOrNaN(s.Steps),
			ActiveMinutes:      intOrNaN(s.ActiveMinutes),
			CaloriesTotal:      intOrNaN(s.CaloriesTotal),
			CaloriesActive:     intOrNaN(s.CaloriesActive),
			DistanceMeters:     orNaN(s.DistanceMeters),
			DosesTaken:         taken[s.Date],
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func intOrNaN(v *int) float64 {
	if v == nil {
		return math.NaN()
	}
	return float64(*v)
}
