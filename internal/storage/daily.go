// ABOUTME: Daily summary persistence with fetch-merge-upsert semantics.
// ABOUTME: Incoming rows are patches; fields they leave unset keep stored values.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

const dailyColumns = `user_id, summary_date, sleep_score, sleep_duration_hours, deep_sleep_hours,
	light_sleep_hours, rem_sleep_hours, awake_hours, hrv_avg, resting_hr, stress_avg,
	body_battery_high, body_battery_low, steps, active_minutes, calories_total,
	calories_active, distance_meters, field_sources`

// UpsertDailySummaries merges each patch into the stored row for its date and
// writes the result. Source precedence holds across imports: a stored field
// from a higher ranked source is not replaced by a lower ranked patch.
// Returns how many rows were written.
func (d *DB) UpsertDailySummaries(userID string, patches []models.DailyHealthSummary) (int, error) {
	written := 0
	err := d.withTx(func(tx *sql.Tx) error {
		for i := range patches {
			patch := patches[i]
			if _, err := time.Parse(models.DateLayout, patch.Date); err != nil {
				return fmt.Errorf("upsert daily summary: invalid date %q", patch.Date)
			}

			row, err := d.getDaily(tx, userID, patch.Date)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("upsert daily summary %s: %w", patch.Date, err)
			}
			if row == nil {
				row = models.NewDailyHealthSummary(patch.Date)
			}
			row.UserID = userID
			row.PatchRanked(&patch, garmin.Rank)

			if err := d.writeDaily(tx, row); err != nil {
				return fmt.Errorf("upsert daily summary %s: %w", patch.Date, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (d *DB) writeDaily(r runner, s *models.DailyHealthSummary) error {
	query := `
		INSERT INTO daily_summaries (` + dailyColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, summary_date) DO UPDATE SET
			sleep_score = excluded.sleep_score,
			sleep_duration_hours = excluded.sleep_duration_hours,
			deep_sleep_hours = excluded.deep_sleep_hours,
			light_sleep_hours = excluded.light_sleep_hours,
			rem_sleep_hours = excluded.rem_sleep_hours,
			awake_hours = excluded.awake_hours,
			hrv_avg = excluded.hrv_avg,
			resting_hr = excluded.resting_hr,
			stress_avg = excluded.stress_avg,
			body_battery_high = excluded.body_battery_high,
			body_battery_low = excluded.body_battery_low,
			steps = excluded.steps,
			active_minutes = excluded.active_minutes,
			calories_total = excluded.calories_total,
			calories_active = excluded.calories_active,
			distance_meters = excluded.distance_meters,
			field_sources = excluded.field_sources,
			updated_at = excluded.updated_at
	`
	sources, err := encodeSources(s.Sources)
	if err != nil {
		return err
	}
	_, err = r.Exec(d.rebind(query),
		s.UserID, s.Date,
		nullFloat(s.SleepScore), nullFloat(s.SleepDurationHours), nullFloat(s.DeepSleepHours),
		nullFloat(s.LightSleepHours), nullFloat(s.RemSleepHours), nullFloat(s.AwakeHours),
		nullFloat(s.HRVAvg), nullFloat(s.RestingHR), nullFloat(s.StressAvg),
		nullFloat(s.BodyBatteryHigh), nullFloat(s.BodyBatteryLow),
		nullInt(s.Steps), nullInt(s.ActiveMinutes), nullInt(s.CaloriesTotal), nullInt(s.CaloriesActive),
		nullFloat(s.DistanceMeters), sources,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetDailySummary returns the stored row for one date.
func (d *DB) GetDailySummary(userID, date string) (*models.DailyHealthSummary, error) {
	s, err := d.getDaily(d.db, userID, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("get daily summary: %w", err)
	}
	return s, nil
}

func (d *DB) getDaily(r runner, userID, date string) (*models.DailyHealthSummary, error) {
	query := `SELECT ` + dailyColumns + ` FROM daily_summaries WHERE user_id = ? AND summary_date = ?`
	rows, err := r.Query(d.rebind(query), userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days, err := scanDailies(rows)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, ErrNotFound
	}
	return &days[0], nil
}

// ListDailySummaries returns rows between from and to (inclusive, by date),
// oldest first. A zero bound leaves that side open; an empty userID spans all users.
func (d *DB) ListDailySummaries(userID string, from, to time.Time) ([]models.DailyHealthSummary, error) {
	query, args := userFilter(`SELECT `+dailyColumns+` FROM daily_summaries`, userID)
	if !from.IsZero() {
		query += " AND summary_date >= ?"
		args = append(args, from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		query += " AND summary_date <= ?"
		args = append(args, to.Format(models.DateLayout))
	}
	query += " ORDER BY summary_date"

	rows, err := d.db.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	return scanDailies(rows)
}

// scanDailies scans rows selected with dailyColumns.
func scanDailies(rows *sql.Rows) ([]models.DailyHealthSummary, error) {
	var out []models.DailyHealthSummary
	for rows.Next() {
		var s models.DailyHealthSummary
		var sleepScore, sleepHours, deep, light, rem, awake sql.NullFloat64
		var hrv, rhr, stress, bbHigh, bbLow, distance sql.NullFloat64
		var steps, minutes, calTotal, calActive sql.NullInt64
		var sources sql.NullString

		err := rows.Scan(&s.UserID, &s.Date,
			&sleepScore, &sleepHours, &deep, &light, &rem, &awake,
			&hrv, &rhr, &stress, &bbHigh, &bbLow,
			&steps, &minutes, &calTotal, &calActive, &distance, &sources)
		if err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}

		s.SleepScore = floatPtr(sleepScore)
		s.SleepDurationHours = floatPtr(sleepHours)
		s.DeepSleepHours = floatPtr(deep)
		s.LightSleepHours = floatPtr(light)
		s.RemSleepHours = floatPtr(rem)
		s.AwakeHours = floatPtr(awake)
		s.HRVAvg = floatPtr(hrv)
		s.RestingHR = floatPtr(rhr)
		s.StressAvg = floatPtr(stress)
		s.BodyBatteryHigh = floatPtr(bbHigh)
		s.BodyBatteryLow = floatPtr(bbLow)
		s.Steps = intPtr(steps)
		s.ActiveMinutes = intPtr(minutes)
		s.CaloriesTotal = intPtr(calTotal)
		s.CaloriesActive = intPtr(calActive)
		s.DistanceMeters = floatPtr(distance)
		if s.Sources, err = decodeSources(sources); err != nil {
			return nil, fmt.Errorf("scan daily summary %s: %w", s.Date, err)
		}

		out = append(out, s)
	}
	return out, rows.Err()
}

// encodeSources stores field provenance as a JSON object, or NULL when empty.
func encodeSources(src map[models.Field]string) (sql.NullString, error) {
	if len(src) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode field sources: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeSources(v sql.NullString) (map[models.Field]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var src map[models.Field]string
	if err := json.Unmarshal([]byte(v.String), &src); err != nil {
		return nil, fmt.Errorf("decode field sources: %w", err)
	}
	if len(src) == 0 {
		return nil, nil
	}
	return src, nil
}
