// ABOUTME: Data sufficiency validator gating correlation and insight generation.
// ABOUTME: Hard requirements block analysis; soft warnings only lower the quality score.
package analysis

import (
	"fmt"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// Sufficiency thresholds.
const (
	MinBiometricDays   = 7
	IdealBiometricDays = 14
	MinDoseLogs        = 3
	TargetDoseLogs     = 7
	MinActiveProtocols = 1
	MinBaselineDays    = 14
	IdealBaselineDays  = 28
	MinCompleteness    = 0.7
)

// DataQuality is the bucketed quality score.
type DataQuality string

const (
	QualityExcellent    DataQuality = "excellent"
	QualityGood         DataQuality = "good"
	QualityFair         DataQuality = "fair"
	QualityInsufficient DataQuality = "insufficient"
)

// UserDataSummary is the aggregate the validator scores.
type UserDataSummary struct {
	BiometricDays   int             `json:"biometric_days"`
	DoseCount       int             `json:"dose_count"`
	ActiveProtocols int             `json:"active_protocols"`
	Baseline        BaselineMetrics `json:"baseline"`
	// Completeness is the share (0..1) of the six key fields present across days.
	Completeness float64 `json:"completeness"`
}

// ValidationResult explains whether analysis may run and how trustworthy it is.
type ValidationResult struct {
	IsValid             bool            `json:"is_valid"`
	HasMinimumData      bool            `json:"has_minimum_data"`
	Quality             DataQuality     `json:"quality"`
	Score               float64         `json:"score"`
	BaselineDays        int             `json:"baseline_days"`
	MissingRequirements []string        `json:"missing_requirements,omitempty"`
	Warnings            []string        `json:"warnings,omitempty"`
	Summary             UserDataSummary `json:"summary"`
}

// InferBaselineDays approximates baseline coverage from how many of the six
// core baseline fields are non-zero.
func InferBaselineDays(b BaselineMetrics) int {
	nonZero := 0
	for _, v := range b.coreFields() {
		if v != 0 {
			nonZero++
		}
	}
	switch {
	case nonZero >= 4:
		return IdealBaselineDays
	case nonZero >= 2:
		return MinBaselineDays
	}
	return 0
}

// ValidateData scores a user's data.
func ValidateData(s UserDataSummary) ValidationResult {
	res := ValidationResult{Summary: s, BaselineDays: InferBaselineDays(s.Baseline)}

	if s.BiometricDays < MinBiometricDays {
		res.MissingRequirements = append(res.MissingRequirements,
			fmt.Sprintf("need at least %d days of biometric data (have %d)", MinBiometricDays, s.BiometricDays))
	}
	if s.DoseCount < MinDoseLogs {
		res.MissingRequirements = append(res.MissingRequirements,
			fmt.Sprintf("need at least %d logged doses (have %d)", MinDoseLogs, s.DoseCount))
	}
	if s.ActiveProtocols < MinActiveProtocols {
		res.MissingRequirements = append(res.MissingRequirements,
			"need at least one active protocol")
	}
	res.HasMinimumData = len(res.MissingRequirements) == 0

	if s.BiometricDays < IdealBiometricDays {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d days of biometric data; %d or more gives more reliable results", s.BiometricDays, IdealBiometricDays))
	}
	if res.BaselineDays < MinBaselineDays {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("baseline covers fewer than %d days; comparisons may be unreliable", MinBaselineDays))
	}
	if s.Completeness < MinCompleteness {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("data is %.0f%% complete across key metrics (target %.0f%%)", s.Completeness*100, MinCompleteness*100))
	}

	res.Score = 0.3*ratio(float64(s.BiometricDays), IdealBiometricDays) +
		0.2*ratio(float64(s.DoseCount), TargetDoseLogs) +
		0.3*ratio(float64(res.BaselineDays), IdealBaselineDays) +
		0.2*ratio(s.Completeness, 1)

	switch {
	case res.Score >= 0.9:
		res.Quality = QualityExcellent
	case res.Score >= 0.7:
		res.Quality = QualityGood
	case res.Score >= 0.5:
		res.Quality = QualityFair
	default:
		res.Quality = QualityInsufficient
	}

	res.IsValid = res.HasMinimumData && res.Quality != QualityInsufficient
	return res
}

func ratio(v, target float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= target {
		return 1
	}
	return v / target
}

// completenessFields are the six key biometric columns.
var completenessFields = []models.Field{
	models.FieldHRVAvg, models.FieldRestingHR, models.FieldSleepScore,
	models.FieldSleepDurationHours, models.FieldStressAvg, models.FieldBodyBatteryHigh,
}

// Completeness is the share of key fields present across days.
func Completeness(days []models.DailyHealthSummary) float64 {
	if len(days) == 0 {
		return 0
	}
	present := 0
	for i := range days {
		for _, f := range completenessFields {
			if days[i].Has(f) {
				present++
			}
		}
	}
	return float64(present) / float64(len(days)*len(completenessFields))
}

// SummarizeUserData builds the validator input from stored rows. Only taken
// doses count toward the dose requirement.
func SummarizeUserData(days []models.DailyHealthSummary, doses []models.DoseLog, protocols []*models.Protocol, baseline BaselineMetrics) UserDataSummary {
	s := UserDataSummary{Baseline: baseline, Completeness: Completeness(days)}
	for i := range days {
		if days[i].HasBiometrics() {
			s.BiometricDays++
		}
	}
	for _, d := range doses {
		if d.Status == models.DoseTaken {
			s.DoseCount++
		}
	}
	for _, p := range protocols {
		if p.IsActive() {
			s.ActiveProtocols++
		}
	}
	return s
}
