// ABOUTME: ParsedActivity model for workouts imported from Garmin exports.
// ABOUTME: Keeps normalized SI fields plus the verbatim source columns.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ParsedActivity represents one workout. Distances are meters, speeds m/s.
type ParsedActivity struct {
	ID              uuid.UUID         `json:"id" yaml:"id"`
	UserID          string            `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	ActivityType    string            `json:"activity_type" yaml:"activity_type"`
	Name            *string           `json:"name,omitempty" yaml:"name,omitempty"`
	StartTime       time.Time         `json:"start_time" yaml:"start_time"`
	DurationSeconds *float64          `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	DistanceMeters  *float64          `json:"distance_meters,omitempty" yaml:"distance_meters,omitempty"`
	Calories        *int              `json:"calories,omitempty" yaml:"calories,omitempty"`
	AvgHeartRate    *int              `json:"avg_heart_rate,omitempty" yaml:"avg_heart_rate,omitempty"`
	MaxHeartRate    *int              `json:"max_heart_rate,omitempty" yaml:"max_heart_rate,omitempty"`
	AvgSpeedMPS     *float64          `json:"avg_speed_mps,omitempty" yaml:"avg_speed_mps,omitempty"`
	ElevationGainM  *float64          `json:"elevation_gain_m,omitempty" yaml:"elevation_gain_m,omitempty"`
	RawData         map[string]string `json:"raw_data,omitempty" yaml:"raw_data,omitempty"`
	CreatedAt       time.Time         `json:"created_at" yaml:"created_at"`
}

// NewParsedActivity creates an activity with a generated UUID.
func NewParsedActivity(activityType string, start time.Time) *ParsedActivity {
	return &ParsedActivity{
		ID:           uuid.New(),
		ActivityType: activityType,
		StartTime:    start,
		RawData:      make(map[string]string),
		CreatedAt:    time.Now(),
	}
}

// WithName sets the activity title.
func (a *ParsedActivity) WithName(name string) *ParsedActivity {
	a.Name = &name
	return a
}

// Date returns the calendar date of the activity start.
func (a *ParsedActivity) Date() string {
	return a.StartTime.Format(DateLayout)
}
