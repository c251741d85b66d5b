// ABOUTME: Filename classifier for Garmin export files.
// ABOUTME: Maps vendor filename fragments to data types and extracts encoded date ranges.
package garmin

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// DataType is the kind of Garmin data a file carries.
type DataType string

const (
	TypeSleep          DataType = "sleep"
	TypeHRV            DataType = "hrv"
	TypeStress         DataType = "stress"
	TypeBodyBattery    DataType = "body_battery"
	TypeDailySummary   DataType = "daily_summary"
	TypeHealthStatus   DataType = "health_status"
	TypeHydration      DataType = "hydration"
	TypeUserBiometrics DataType = "user_biometrics"
	TypeActivities     DataType = "activities"
	TypeUnknown        DataType = "unknown"
)

// classifierRules are checked in order; the first matching fragment wins.
var classifierRules = []struct {
	fragments []string
	dataType  DataType
}{
	{[]string{"sleepdata"}, TypeSleep},
	{[]string{"udsfile", "aggregator"}, TypeDailySummary},
	{[]string{"healthstatusdata"}, TypeHealthStatus},
	{[]string{"hydration"}, TypeHydration},
	{[]string{"hrv"}, TypeHRV},
	{[]string{"stress"}, TypeStress},
	{[]string{"bodybattery"}, TypeBodyBattery},
	{[]string{"activities"}, TypeActivities},
	{[]string{"userbiometrics", "fitnessagedata"}, TypeUserBiometrics},
}

// Classify returns the data type of a file from its name. It never fails.
func Classify(filename string) DataType {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	for _, rule := range classifierRules {
		for _, frag := range rule.fragments {
			if strings.Contains(name, frag) {
				return rule.dataType
			}
		}
	}
	return TypeUnknown
}

// DateRange is an inclusive span of calendar days encoded in a filename.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Intersects reports whether the range overlaps [from, to] at day granularity.
func (r DateRange) Intersects(from, to time.Time) bool {
	from, to = truncateDay(from), truncateDay(to)
	return !r.End.Before(from) && !r.Start.After(to)
}

func (r DateRange) String() string {
	return r.Start.Format(models.DateLayout) + ".." + r.End.Format(models.DateLayout)
}

var (
	// {start}_{end}_{id}_{type}.json
	rangePrefixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_(\d{4}-\d{2}-\d{2})_[^_]+_.+\.json$`)
	// {type}_{start}_{end}.json
	rangeSuffixPattern = regexp.MustCompile(`^.+_(\d{4}-\d{2}-\d{2})_(\d{4}-\d{2}-\d{2})\.json$`)
)

// ExtractDateRange parses a date range out of a filename, or returns nil.
func ExtractDateRange(filename string) *DateRange {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	for _, re := range []*regexp.Regexp{rangePrefixPattern, rangeSuffixPattern} {
		m := re.FindStringSubmatch(strings.ToLower(name))
		if m == nil {
			continue
		}
		start, err1 := time.Parse(models.DateLayout, m[1])
		end, err2 := time.Parse(models.DateLayout, m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if end.Before(start) {
			start, end = end, start
		}
		return &DateRange{Start: start, End: end}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
