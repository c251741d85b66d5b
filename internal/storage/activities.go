// ABOUTME: Activity persistence keyed on (user, start time).
// ABOUTME: Re-importing an activity updates the stored row instead of duplicating it.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/google/uuid"
)

const activityColumns = `id, user_id, activity_type, name, start_time, duration_seconds,
	distance_meters, calories, avg_heart_rate, max_heart_rate, avg_speed_mps,
	elevation_gain_m, raw_data, created_at`

// SaveActivities inserts new activities and updates ones already stored for
// the same start time.
func (d *DB) SaveActivities(userID string, activities []*models.ParsedActivity) (*SaveResult, error) {
	result := &SaveResult{}
	err := d.withTx(func(tx *sql.Tx) error {
		for _, a := range activities {
			a.UserID = userID
			raw, err := json.Marshal(a.RawData)
			if err != nil {
				return fmt.Errorf("encode raw data: %w", err)
			}
			start := a.StartTime.UTC().Format(time.RFC3339)

			var existing string
			err = tx.QueryRow(d.rebind(`SELECT id FROM activities WHERE user_id = ? AND start_time = ?`), userID, start).Scan(&existing)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				query := `INSERT INTO activities (` + activityColumns + `)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
				_, err = tx.Exec(d.rebind(query),
					a.ID.String(), userID, a.ActivityType, nullString(a.Name), start,
					nullFloat(a.DurationSeconds), nullFloat(a.DistanceMeters), nullInt(a.Calories),
					nullInt(a.AvgHeartRate), nullInt(a.MaxHeartRate), nullFloat(a.AvgSpeedMPS),
					nullFloat(a.ElevationGainM), string(raw), a.CreatedAt.UTC().Format(time.RFC3339),
				)
				if err != nil {
					return fmt.Errorf("insert activity: %w", err)
				}
				result.Inserted++
			case err != nil:
				return fmt.Errorf("find activity: %w", err)
			default:
				query := `UPDATE activities SET activity_type = ?, name = ?, duration_seconds = ?,
					distance_meters = ?, calories = ?, avg_heart_rate = ?, max_heart_rate = ?,
					avg_speed_mps = ?, elevation_gain_m = ?, raw_data = ?
					WHERE id = ?`
				_, err = tx.Exec(d.rebind(query),
					a.ActivityType, nullString(a.Name), nullFloat(a.DurationSeconds),
					nullFloat(a.DistanceMeters), nullInt(a.Calories), nullInt(a.AvgHeartRate),
					nullInt(a.MaxHeartRate), nullFloat(a.AvgSpeedMPS), nullFloat(a.ElevationGainM),
					string(raw), existing,
				)
				if err != nil {
					return fmt.Errorf("update activity: %w", err)
				}
				a.ID, _ = uuid.Parse(existing)
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListActivities returns the user's activities, most recent first.
func (d *DB) ListActivities(userID string, limit int) ([]*models.ParsedActivity, error) {
	query, args := userFilter(`SELECT `+activityColumns+` FROM activities`, userID)
	query += " ORDER BY start_time DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []*models.ParsedActivity
	for rows.Next() {
		var a models.ParsedActivity
		var idStr, start, createdAt string
		var name, raw sql.NullString
		var duration, distance, speed, elevation sql.NullFloat64
		var calories, avgHR, maxHR sql.NullInt64

		err := rows.Scan(&idStr, &a.UserID, &a.ActivityType, &name, &start, &duration,
			&distance, &calories, &avgHR, &maxHR, &speed, &elevation, &raw, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}

		a.ID, _ = uuid.Parse(idStr)
		a.Name = stringPtr(name)
		a.StartTime, _ = time.Parse(time.RFC3339, start)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.DurationSeconds = floatPtr(duration)
		a.DistanceMeters = floatPtr(distance)
		a.Calories = intPtr(calories)
		a.AvgHeartRate = intPtr(avgHR)
		a.MaxHeartRate = intPtr(maxHR)
		a.AvgSpeedMPS = floatPtr(speed)
		a.ElevationGainM = floatPtr(elevation)
		a.RawData = make(map[string]string)
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &a.RawData); err != nil {
				return nil, fmt.Errorf("decode raw data: %w", err)
			}
		}

		out = append(out, &a)
	}
	return out, rows.Err()
}
