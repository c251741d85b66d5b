// ABOUTME: Decodes Garmin .fit activity files into ParsedActivity records.
// ABOUTME: Reads the first session message and filters FIT invalid sentinels.
package garmin

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/tormoder/fit"
)

// ParseFIT decodes one FIT activity file. Malformed binaries return an error.
func ParseFIT(data []byte) (*models.ParsedActivity, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, fmt.Errorf("activity file has no session message")
	}
	session := activity.Sessions[0]

	start := validTime(session.StartTime)
	if start.IsZero() && len(activity.Records) > 0 {
		start = validTime(activity.Records[0].Timestamp)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("activity file has no start time")
	}

	a := models.NewParsedActivity(sportName(session.Sport), start.UTC())
	a.RawData["sport"] = session.Sport.String()
	a.RawData["sub_sport"] = session.SubSport.String()
	a.RawData["source"] = "fit"

	if v := positive(session.GetTotalTimerTimeScaled()); v > 0 {
		a.DurationSeconds = models.Float(v)
	}
	if v := positive(session.GetTotalDistanceScaled()); v > 0 {
		a.DistanceMeters = models.Float(v)
	}
	if v := session.TotalCalories; v != math.MaxUint16 && v > 0 {
		a.Calories = models.Int(int(v))
	}
	if v := session.AvgHeartRate; v != math.MaxUint8 && v > 0 {
		a.AvgHeartRate = models.Int(int(v))
	}
	if v := session.MaxHeartRate; v != math.MaxUint8 && v > 0 {
		a.MaxHeartRate = models.Int(int(v))
	}
	speed := positive(session.GetEnhancedAvgSpeedScaled())
	if speed == 0 {
		speed = positive(session.GetAvgSpeedScaled())
	}
	if speed > 0 {
		a.AvgSpeedMPS = models.Float(speed)
	}
	if v := session.TotalAscent; v != math.MaxUint16 && v > 0 {
		a.ElevationGainM = models.Float(float64(v))
	}
	return a, nil
}

// IsFIT reports whether data carries a FIT file header.
func IsFIT(data []byte) bool {
	return len(data) >= 12 && string(data[8:12]) == ".FIT"
}

func sportName(s fit.Sport) string {
	return strings.TrimPrefix(strings.ToLower(s.String()), "sport")
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func positive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
