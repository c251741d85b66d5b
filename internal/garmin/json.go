// ABOUTME: Best-effort parser for Garmin JSON export files.
// ABOUTME: Normalizes vendor shapes into dated entries carrying a typed record per data type.
package garmin

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// Record is the typed payload of one entry. The concrete type depends on the
// file's data type; RawRecord is the unrecognized variant.
type Record interface {
	DataType() DataType
}

// SleepRecord holds sleep stage durations in seconds and the overall score.
type SleepRecord struct {
	TotalSeconds *float64
	DeepSeconds  *float64
	LightSeconds *float64
	RemSeconds   *float64
	AwakeSeconds *float64
	Score        *float64
}

// HRVRecord holds nightly HRV values in milliseconds.
type HRVRecord struct {
	LastNightAvg *float64
	Value        *float64
}

// StressRecord holds the daily stress level.
type StressRecord struct {
	Overall *float64
}

// BodyBatteryRecord holds body battery extremes and day boundary values.
type BodyBatteryRecord struct {
	Highest    *float64
	Lowest     *float64
	StartOfDay *float64
	EndOfDay   *float64
}

// DailySummaryRecord holds the fields of a UDS or aggregator daily summary.
type DailySummaryRecord struct {
	Steps           *float64
	DistanceMeters  *float64
	ActiveKcal      *float64
	BMRKcal         *float64
	TotalKcal       *float64
	ModerateMinutes *float64
	VigorousMinutes *float64
	RestingHR       *float64
	StressAvg       *float64
	BodyBatteryHigh *float64
	BodyBatteryLow  *float64
}

// HealthStatusRecord holds the HRV and HR values from a health status file.
type HealthStatusRecord struct {
	HRV *float64
	HR  *float64
}

// RawRecord is an entry whose type has no typed decoding.
type RawRecord struct {
	Type DataType
}

func (SleepRecord) DataType() DataType        { return TypeSleep }
func (HRVRecord) DataType() DataType          { return TypeHRV }
func (StressRecord) DataType() DataType       { return TypeStress }
func (BodyBatteryRecord) DataType() DataType  { return TypeBodyBattery }
func (DailySummaryRecord) DataType() DataType { return TypeDailySummary }
func (HealthStatusRecord) DataType() DataType { return TypeHealthStatus }
func (r RawRecord) DataType() DataType        { return r.Type }

// Entry is one dated object from an export file.
type Entry struct {
	Date   string         `json:"date"`
	Raw    map[string]any `json:"raw"`
	Record Record         `json:"-"`
}

// ParsedFile is the result of parsing one JSON export file.
type ParsedFile struct {
	Type     DataType `json:"type"`
	FileName string   `json:"file_name"`
	Entries  []Entry  `json:"entries"`
}

var containerKeys = []string{"allSleeps", "hrvValues", "stressSummaries", "bodyBatteryData", "dailySummaries"}

var (
	stringDateKeys = []string{"calendarDate", "date", "summaryDate", "startDate", "startTimeLocal"}
	epochDateKeys  = []string{"sleepStartTimestampGMT", "sleepStartTimestampLocal", "startTimestampGMT", "timestamp"}
)

type structuralHint struct {
	keys     []string
	dataType DataType
}

func (h structuralHint) matches(sample map[string]any) bool {
	for _, k := range h.keys {
		if _, ok := sample[k]; ok {
			return true
		}
	}
	return false
}

// structuralHints classify content when the filename gives no answer, and
// override a filename match the content contradicts.
var structuralHints = []structuralHint{
	{[]string{"sleepTimeSeconds", "deepSleepSeconds"}, TypeSleep},
	{[]string{"lastNightAvg", "hrvSummary"}, TypeHRV},
	{[]string{"overallStressLevel"}, TypeStress},
	{[]string{"startOfDayBodyBattery"}, TypeBodyBattery},
	{[]string{"totalSteps"}, TypeDailySummary},
	{[]string{"overallValues", "metrics"}, TypeHealthStatus},
	{[]string{"summarizedActivitiesExport"}, TypeActivities},
}

// ParseExportJSON parses a JSON export file. Invalid JSON yields an unknown
// type with no entries; it never returns an error.
func ParseExportJSON(content []byte, filename string) *ParsedFile {
	pf := &ParsedFile{Type: TypeUnknown, FileName: filename}

	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return pf
	}

	items := normalizeEntries(doc)

	sample := sampleEntry(doc, items)
	pf.Type = Classify(filename)
	if sample != nil && (pf.Type == TypeUnknown || contradicts(sample, pf.Type)) {
		pf.Type = detectStructure(sample)
	}

	for _, item := range items {
		date, ok := extractDate(item)
		if !ok {
			continue
		}
		pf.Entries = append(pf.Entries, Entry{
			Date:   date,
			Raw:    item,
			Record: decodeRecord(pf.Type, item),
		})
	}
	return pf
}

func normalizeEntries(doc any) []map[string]any {
	switch v := doc.(type) {
	case []any:
		return objects(v)
	case map[string]any:
		for _, key := range containerKeys {
			if arr, ok := v[key].([]any); ok {
				return objects(arr)
			}
		}
		if _, ok := extractDate(v); ok {
			return []map[string]any{v}
		}
	}
	return nil
}

func objects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func detectStructure(sample map[string]any) DataType {
	for _, hint := range structuralHints {
		if hint.matches(sample) {
			return hint.dataType
		}
	}
	return TypeUnknown
}

// contradicts reports whether sample lacks every hint key of t while a hint
// for another type is present. Types without hints are never contradicted.
func contradicts(sample map[string]any, t DataType) bool {
	hinted := false
	for _, hint := range structuralHints {
		if hint.dataType != t {
			continue
		}
		hinted = true
		if hint.matches(sample) {
			return false
		}
	}
	if !hinted {
		return false
	}
	found := detectStructure(sample)
	return found != TypeUnknown && found != t
}

// sampleEntry returns the first object in the document, used for structural hints.
func sampleEntry(doc any, items []map[string]any) map[string]any {
	if len(items) > 0 {
		return items[0]
	}
	switch v := doc.(type) {
	case map[string]any:
		return v
	case []any:
		if objs := objects(v); len(objs) > 0 {
			return objs[0]
		}
	}
	return nil
}

// extractDate returns the YYYY-MM-DD key of an entry.
func extractDate(item map[string]any) (string, bool) {
	if d, ok := dateFrom(item); ok {
		return d, true
	}
	if nested, ok := item["hrvSummary"].(map[string]any); ok {
		return dateFrom(nested)
	}
	return "", false
}

func dateFrom(item map[string]any) (string, bool) {
	for _, key := range stringDateKeys {
		if s, ok := item[key].(string); ok {
			if d, ok := dateFromString(s); ok {
				return d, true
			}
		}
	}
	for _, key := range epochDateKeys {
		switch v := item[key].(type) {
		case float64:
			return epochDate(v), true
		case string:
			if d, ok := dateFromString(v); ok {
				return d, true
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil && finite(f) {
				return epochDate(f), true
			}
		}
	}
	return "", false
}

func dateFromString(s string) (string, bool) {
	if len(s) < 10 {
		return "", false
	}
	if _, err := time.Parse(models.DateLayout, s[:10]); err != nil {
		return "", false
	}
	return s[:10], true
}

// epochDate treats values above 1e11 as milliseconds.
func epochDate(v float64) string {
	return epochTime(v).Format(models.DateLayout)
}

func epochTime(v float64) time.Time {
	if v > 1e11 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

func decodeRecord(t DataType, m map[string]any) Record {
	switch t {
	case TypeSleep:
		return decodeSleep(m)
	case TypeHRV:
		return decodeHRV(m)
	case TypeStress:
		return StressRecord{Overall: number(m, "overallStressLevel", "averageStressLevel")}
	case TypeBodyBattery:
		return decodeBodyBattery(m)
	case TypeDailySummary:
		return decodeDailySummary(m)
	case TypeHealthStatus:
		return decodeHealthStatus(m)
	}
	return RawRecord{Type: t}
}

func decodeSleep(m map[string]any) SleepRecord {
	r := SleepRecord{
		TotalSeconds: number(m, "sleepTimeSeconds"),
		DeepSeconds:  number(m, "deepSleepSeconds"),
		LightSeconds: number(m, "lightSleepSeconds"),
		RemSeconds:   number(m, "remSleepSeconds"),
		AwakeSeconds: number(m, "awakeSleepSeconds"),
	}
	if scores, ok := m["sleepScores"].(map[string]any); ok {
		r.Score = number(scores, "overallScore")
		if r.Score == nil {
			if overall, ok := scores["overall"].(map[string]any); ok {
				r.Score = number(overall, "value")
			}
		}
	}
	if r.Score == nil {
		r.Score = number(m, "overallSleepScore")
	}
	return r
}

func decodeHRV(m map[string]any) HRVRecord {
	src := m
	if nested, ok := m["hrvSummary"].(map[string]any); ok {
		src = nested
	}
	return HRVRecord{
		LastNightAvg: number(src, "lastNightAvg"),
		Value:        number(src, "hrvValue", "value"),
	}
}

func decodeBodyBattery(m map[string]any) BodyBatteryRecord {
	return BodyBatteryRecord{
		Highest:    number(m, "highestBodyBattery", "bodyBatteryHighestValue", "maxBodyBattery"),
		Lowest:     number(m, "lowestBodyBattery", "bodyBatteryLowestValue", "minBodyBattery"),
		StartOfDay: number(m, "startOfDayBodyBattery"),
		EndOfDay:   number(m, "endOfDayBodyBattery"),
	}
}

func decodeDailySummary(m map[string]any) DailySummaryRecord {
	r := DailySummaryRecord{
		Steps:           number(m, "totalSteps"),
		DistanceMeters:  number(m, "totalDistanceMeters"),
		ActiveKcal:      number(m, "activeKilocalories"),
		BMRKcal:         number(m, "bmrKilocalories"),
		TotalKcal:       number(m, "totalKilocalories"),
		ModerateMinutes: number(m, "moderateIntensityMinutes"),
		VigorousMinutes: number(m, "vigorousIntensityMinutes"),
		RestingHR:       number(m, "restingHeartRate", "currentDayRestingHeartRate"),
		StressAvg:       number(m, "averageStressLevel"),
		BodyBatteryHigh: number(m, "bodyBatteryHighestValue"),
		BodyBatteryLow:  number(m, "bodyBatteryLowestValue"),
	}

	if stress, ok := m["allDayStress"].(map[string]any); ok {
		for _, agg := range listOf(stress, "aggregatorList") {
			if strings.EqualFold(str(agg, "type"), "TOTAL") {
				if v := number(agg, "averageStressLevel"); v != nil {
					r.StressAvg = v
				}
			}
		}
	}
	if bb, ok := m["bodyBattery"].(map[string]any); ok {
		for _, stat := range listOf(bb, "bodyBatteryStatList") {
			switch strings.ToUpper(str(stat, "bodyBatteryStatType")) {
			case "HIGHEST":
				if v := number(stat, "statsValue"); v != nil {
					r.BodyBatteryHigh = v
				}
			case "LOWEST":
				if v := number(stat, "statsValue"); v != nil {
					r.BodyBatteryLow = v
				}
			}
		}
	}
	return r
}

func decodeHealthStatus(m map[string]any) HealthStatusRecord {
	var r HealthStatusRecord
	for _, metric := range listOf(m, "metrics") {
		switch strings.ToUpper(str(metric, "type")) {
		case "HRV":
			if r.HRV == nil {
				r.HRV = number(metric, "value")
			}
		case "HR":
			if r.HR == nil {
				r.HR = number(metric, "value")
			}
		}
	}
	return r
}

// number reads the first numeric value found under keys. Numeric strings count.
func number(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if finite(v) {
				return &v
			}
		case json.Number:
			if f, err := v.Float64(); err == nil && finite(f) {
				return &f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && finite(f) {
				return &f
			}
		}
	}
	return nil
}

// finite rejects NaN and the infinities strconv accepts as "NaN" and "Inf".
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func listOf(m map[string]any, key string) []map[string]any {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	return objects(arr)
}

// ParseActivitiesJSON converts a summarizedActivitiesExport file into
// activities. Invalid content yields no activities.
func ParseActivitiesJSON(content []byte) []*models.ParsedActivity {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}

	var raw []map[string]any
	collect := func(m map[string]any) {
		if arr, ok := m["summarizedActivitiesExport"].([]any); ok {
			raw = append(raw, objects(arr)...)
		} else if _, ok := m["activityType"]; ok {
			raw = append(raw, m)
		}
	}
	switch v := doc.(type) {
	case []any:
		for _, m := range objects(v) {
			collect(m)
		}
	case map[string]any:
		collect(v)
	}

	var out []*models.ParsedActivity
	for _, m := range raw {
		if a := activityFromJSON(m); a != nil {
			out = append(out, a)
		}
	}
	return out
}

func activityFromJSON(m map[string]any) *models.ParsedActivity {
	activityType := str(m, "activityType")
	if t, ok := m["activityType"].(map[string]any); ok {
		activityType = str(t, "typeKey")
	}
	if activityType == "" {
		activityType = str(m, "sportType")
	}
	if activityType == "" {
		return nil
	}

	startMS := number(m, "startTimeLocal", "startTimeGmt", "beginTimestamp")
	if startMS == nil {
		return nil
	}

	a := models.NewParsedActivity(activityType, epochTime(*startMS))
	if name := str(m, "name"); name != "" {
		a.WithName(name)
	}
	if v := number(m, "duration"); v != nil {
		a.DurationSeconds = models.Float(*v / 1000)
	}
	if v := number(m, "distance"); v != nil {
		a.DistanceMeters = models.Float(*v / 100)
	}
	if v := number(m, "calories"); v != nil {
		a.Calories = models.Int(int(math.Round(*v)))
	}
	if v := number(m, "avgHr"); v != nil {
		a.AvgHeartRate = models.Int(int(math.Round(*v)))
	}
	if v := number(m, "maxHr"); v != nil {
		a.MaxHeartRate = models.Int(int(math.Round(*v)))
	}
	if v := number(m, "avgSpeed"); v != nil {
		a.AvgSpeedMPS = models.Float(*v * 10)
	}
	if v := number(m, "elevationGain"); v != nil {
		a.ElevationGainM = models.Float(*v / 100)
	}
	for k, v := range m {
		switch val := v.(type) {
		case string:
			a.RawData[k] = val
		default:
			b, err := json.Marshal(val)
			if err == nil {
				a.RawData[k] = string(b)
			}
		}
	}
	return a
}
