// ABOUTME: Parser for Garmin Connect activity CSV exports in several locales.
// ABOUTME: Normalizes distance, speed, pace, elevation and duration to SI units.
package garmin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// Unit conversion factors.
const (
	MetersPerMile = 1609.344
	MetersPerFoot = 0.3048
	MPSPerMPH     = 0.44704
	MPSPerKPH     = 1 / 3.6
)

// CSVOptions controls unit assumptions for values without an explicit unit.
type CSVOptions struct {
	// AssumeMiles treats unitless distances and paces as imperial. When false
	// they are read as kilometers and minutes per kilometer.
	AssumeMiles bool
	// Location interprets timestamps without a zone. Defaults to UTC.
	Location *time.Location
}

// DefaultCSVOptions matches the US export defaults.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{AssumeMiles: true}
}

// RowError is a diagnostic for one rejected CSV row. Row is the one-based
// physical line number in the file.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// CSVResult is the outcome of parsing an activity CSV.
type CSVResult struct {
	Success    bool                     `json:"success"`
	Activities []*models.ParsedActivity `json:"activities"`
	Errors     []RowError               `json:"errors,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

type csvField string

const (
	colActivityType  csvField = "activity_type"
	colDate          csvField = "date"
	colTitle         csvField = "title"
	colDuration      csvField = "duration"
	colDistance      csvField = "distance"
	colCalories      csvField = "calories"
	colAvgHR         csvField = "avg_hr"
	colMaxHR         csvField = "max_hr"
	colAvgSpeed      csvField = "avg_speed"
	colAvgPace       csvField = "avg_pace"
	colElevationGain csvField = "elevation_gain"
)

// headerVariants lists accepted header spellings per field (English, German, French).
var headerVariants = map[csvField][]string{
	colActivityType:  {"activity type", "type", "aktivitätstyp", "aktivitätsart", "type d'activité", "type d’activité"},
	colDate:          {"date", "start time", "datum", "startzeit", "heure de début"},
	colTitle:         {"title", "name", "titel", "titre", "nom"},
	colDuration:      {"time", "duration", "elapsed time", "zeit", "dauer", "durée", "temps"},
	colDistance:      {"distance", "distanz", "strecke"},
	colCalories:      {"calories", "kalorien"},
	colAvgHR:         {"avg hr", "average heart rate", "ø herzfrequenz", "durchschnittliche herzfrequenz", "fréquence cardiaque moyenne", "fc moyenne"},
	colMaxHR:         {"max hr", "maximum heart rate", "max. herzfrequenz", "maximale herzfrequenz", "fréquence cardiaque maximale", "fc max"},
	colAvgSpeed:      {"avg speed", "average speed", "ø geschwindigkeit", "durchschnittsgeschwindigkeit", "vitesse moyenne"},
	colAvgPace:       {"avg pace", "average pace", "ø pace", "durchschnittliches tempo", "allure moyenne"},
	colElevationGain: {"total ascent", "elevation gain", "anstieg gesamt", "aufstieg gesamt", "ascension totale", "gain d'altitude"},
}

// activityTypeHeaders are the fragments IsGarminActivityCSV looks for.
var activityTypeHeaders = []string{"activity type", "aktivitätstyp", "aktivitätsart", "type d'activité", "type d’activité"}

// IsGarminActivityCSV checks only the first line for a known activity type header.
func IsGarminActivityCSV(text string) bool {
	first := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		first = text[:i]
	}
	first = strings.ToLower(strings.TrimPrefix(first, "\ufeff"))
	for _, h := range activityTypeHeaders {
		if strings.Contains(first, h) {
			return true
		}
	}
	return false
}

// ParseActivityCSV parses a Garmin activity CSV export. It never returns an
// error; problems are reported through the result.
func ParseActivityCSV(text string, opts CSVOptions) *CSVResult {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	result := &CSVResult{}

	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		result.Message = "file is empty"
		return result
	}

	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		result.Message = fmt.Sprintf("read header: %v", err)
		return result
	}

	cols := mapColumns(header)
	var missing []string
	if _, ok := cols[colActivityType]; !ok {
		missing = append(missing, "Activity Type")
	}
	if _, ok := cols[colDate]; !ok {
		missing = append(missing, "Date")
	}
	if len(missing) > 0 {
		result.Message = fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))
		return result
	}

	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				result.Errors = append(result.Errors, RowError{Row: pe.StartLine, Message: pe.Err.Error()})
				continue
			}
			result.Errors = append(result.Errors, RowError{Row: rows + 2, Message: err.Error()})
			break
		}
		line, _ := r.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}
		rows++

		activity, msg := parseRow(header, record, cols, opts)
		if activity == nil {
			result.Errors = append(result.Errors, RowError{Row: line, Message: msg})
			continue
		}
		result.Activities = append(result.Activities, activity)
	}

	switch {
	case len(result.Activities) > 0:
		result.Success = true
		result.Message = fmt.Sprintf("parsed %d activities", len(result.Activities))
	case rows == 0 && len(result.Errors) == 0:
		result.Message = "no activity rows found"
	default:
		result.Message = "no valid activities found: each row needs an activity type and a date"
	}
	return result
}

func mapColumns(header []string) map[csvField]int {
	cols := make(map[csvField]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for field, variants := range headerVariants {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, v := range variants {
				if name == v {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(header, record []string, cols map[csvField]int, opts CSVOptions) (*models.ParsedActivity, string) {
	get := func(f csvField) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[i])
		if v == "--" {
			return ""
		}
		return v
	}

	activityType := get(colActivityType)
	if activityType == "" {
		return nil, "missing activity type"
	}
	rawDate := get(colDate)
	start, ok := parseDateTime(rawDate, opts.Location)
	if !ok {
		return nil, fmt.Sprintf("unrecognized date %q", rawDate)
	}

	a := models.NewParsedActivity(activityType, start)
	for i, h := range header {
		if i < len(record) {
			a.RawData[strings.TrimSpace(h)] = record[i]
		}
	}
	if title := get(colTitle); title != "" {
		a.WithName(title)
	}
	if d, ok := parseDuration(get(colDuration)); ok {
		a.DurationSeconds = &d
	}
	if d, ok := parseDistance(get(colDistance), opts.AssumeMiles); ok {
		a.DistanceMeters = &d
	}
	if c, ok := parseInt(get(colCalories)); ok {
		a.Calories = &c
	}
	if hr, ok := parseInt(get(colAvgHR)); ok {
		a.AvgHeartRate = &hr
	}
	if hr, ok := parseInt(get(colMaxHR)); ok {
		a.MaxHeartRate = &hr
	}
	if s, ok := parseSpeed(get(colAvgSpeed)); ok {
		a.AvgSpeedMPS = &s
	} else if s, ok := parsePace(get(colAvgPace), opts.AssumeMiles); ok {
		a.AvgSpeedMPS = &s
	}
	if e, ok := parseElevation(get(colElevationGain)); ok {
		a.ElevationGainM = &e
	}
	return a, ""
}

var (
	primaryDateLayouts = []string{"2006-01-02 15:04:05", "2006-01-02", "1/2/2006"}
	fallbackDateLayouts = []string{
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"02.01.2006 15:04:05",
		"02.01.2006 15:04",
		"02.01.2006",
		"2/1/2006 15:04:05",
		"Mon, Jan 2, 2006 15:04",
		"Mon, Jan 2, 2006",
		"Jan 2, 2006 15:04:05",
		"Jan 2, 2006",
		"2 Jan 2006",
	}
)

func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layouts := range [][]string{primaryDateLayouts, fallbackDateLayouts} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseDuration accepts seconds, MM:SS or HH:MM:SS (fractional seconds allowed).
func parseDuration(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 || !finite(v) {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

var valueUnitPattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*([a-z/]*)$`)

func splitValueUnit(s string) (float64, string, bool) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	m := valueUnitPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || !finite(v) {
		return 0, "", false
	}
	return v, m[2], true
}

func parseDistance(s string, assumeMiles bool) (float64, bool) {
	v, unit, ok := splitValueUnit(s)
	if !ok {
		return 0, false
	}
	switch unit {
	case "mi", "mile", "miles":
		return v * MetersPerMile, true
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return v * 1000, true
	case "m", "meter", "meters", "metre", "metres":
		return v, true
	case "":
		if assumeMiles {
			return v * MetersPerMile, true
		}
		return v * 1000, true
	}
	return 0, false
}

func parseSpeed(s string) (float64, bool) {
	v, unit, ok := splitValueUnit(s)
	if !ok {
		return 0, false
	}
	switch unit {
	case "", "mph", "mi/h":
		return v * MPSPerMPH, true
	case "km/h", "kmh", "kph":
		return v * MPSPerKPH, true
	case "m/s", "mps":
		return v, true
	}
	return 0, false
}

// parsePace reads MM:SS per mile (or per km with a /km suffix) as m/s.
func parsePace(s string, assumeMiles bool) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	perMeters := 1000.0
	if assumeMiles {
		perMeters = MetersPerMile
	}
	if i := strings.Index(s, "/"); i >= 0 {
		switch strings.TrimSpace(s[i+1:]) {
		case "km":
			perMeters = 1000
		case "mi", "mile":
			perMeters = MetersPerMile
		default:
			return 0, false
		}
		s = strings.TrimSpace(s[:i])
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "min")
	secs, ok := parseDuration(strings.TrimSpace(s))
	if !ok || secs <= 0 {
		return 0, false
	}
	return perMeters / secs, true
}

func parseElevation(s string) (float64, bool) {
	v, unit, ok := splitValueUnit(s)
	if !ok {
		return 0, false
	}
	switch unit {
	case "", "ft", "feet":
		return v * MetersPerFoot, true
	case "m", "meter", "meters", "metre", "metres":
		return v, true
	}
	return 0, false
}

func parseInt(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Round(v)), true
}
