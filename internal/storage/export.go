// ABOUTME: Export and import functionality for PepMetrics data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format.
type ExportData struct {
	Version    string                      `json:"version" yaml:"version"`
	ExportedAt time.Time                   `json:"exported_at" yaml:"exported_at"`
	Tool       string                      `json:"tool" yaml:"tool"`
	Summaries  []models.DailyHealthSummary `json:"daily_summaries" yaml:"daily_summaries"`
	Activities []*models.ParsedActivity    `json:"activities" yaml:"activities"`
	Protocols  []*models.Protocol          `json:"protocols" yaml:"protocols"`
	Doses      []models.DoseLog            `json:"dose_logs" yaml:"dose_logs"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	summaries, err := d.ListDailySummaries("", time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}

	activities, err := d.ListActivities("", 0)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	protocols, err := d.ListProtocols("", false)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}

	doses, err := d.ListDoseLogs("", time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "pepmetrics",
		Summaries:  summaries,
		Activities: activities,
		Protocols:  protocols,
		Doses:      doses,
	}, nil
}

// ImportData imports data from an export file. Daily rows merge into what is
// stored, activities update by start time, protocols must not exist yet.
func (d *DB) ImportData(data *ExportData) error {
	byUser := make(map[string][]models.DailyHealthSummary)
	var users []string
	for _, s := range data.Summaries {
		if _, ok := byUser[s.UserID]; !ok {
			users = append(users, s.UserID)
		}
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	for _, u := range users {
		if _, err := d.UpsertDailySummaries(u, byUser[u]); err != nil {
			return fmt.Errorf("import daily summaries: %w", err)
		}
	}

	for _, a := range data.Activities {
		if _, err := d.SaveActivities(a.UserID, []*models.ParsedActivity{a}); err != nil {
			return fmt.Errorf("import activity: %w", err)
		}
	}

	for _, p := range data.Protocols {
		if err := d.CreateProtocol(p); err != nil {
			return fmt.Errorf("import protocol: %w", err)
		}
	}

	for i := range data.Doses {
		if err := d.LogDose(&data.Doses[i]); err != nil {
			return fmt.Errorf("import dose log: %w", err)
		}
	}

	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(&exportData)
}

// ExportYAML exports all data as YAML, with dose logs grouped by peptide.
func (d *DB) ExportYAML() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string                      `yaml:"version"`
		ExportedAt string                      `yaml:"exported_at"`
		Tool       string                      `yaml:"tool"`
		Days       []models.DailyHealthSummary `yaml:"daily_summaries"`
		Activities []yamlActivity              `yaml:"activities"`
		Protocols  []yamlProtocol              `yaml:"protocols"`
		Doses      map[string][]yamlDose       `yaml:"doses"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Days:       data.Summaries,
		Activities: make([]yamlActivity, 0, len(data.Activities)),
		Protocols:  make([]yamlProtocol, 0, len(data.Protocols)),
		Doses:      make(map[string][]yamlDose),
	}

	for _, a := range data.Activities {
		ya := yamlActivity{
			ID:        a.ID.String()[:8],
			Type:      a.ActivityType,
			StartTime: a.StartTime.Format(time.RFC3339),
		}
		if a.Name != nil {
			ya.Name = *a.Name
		}
		if a.DurationSeconds != nil {
			ya.DurationMinutes = *a.DurationSeconds / 60
		}
		if a.DistanceMeters != nil {
			ya.DistanceKm = *a.DistanceMeters / 1000
		}
		yamlData.Activities = append(yamlData.Activities, ya)
	}

	for _, p := range data.Protocols {
		yp := yamlProtocol{
			ID:        p.ID.String()[:8],
			Name:      p.Name,
			Peptide:   p.PeptideName,
			Dose:      p.Dose,
			Frequency: string(p.Frequency),
			Schedule:  p.ScheduleSummary(),
			StartDate: p.StartDate.Format(models.DateLayout),
			Status:    string(p.Status),
		}
		if p.Notes != nil {
			yp.Notes = *p.Notes
		}
		yamlData.Protocols = append(yamlData.Protocols, yp)
	}

	for _, dl := range data.Doses {
		yd := yamlDose{
			Date:   dl.Date(),
			Number: dl.DoseNumber,
			Dose:   dl.Dose,
			Status: string(dl.Status),
		}
		if dl.Notes != nil {
			yd.Notes = *dl.Notes
		}
		yamlData.Doses[dl.PeptideName] = append(yamlData.Doses[dl.PeptideName], yd)
	}

	return yaml.Marshal(yamlData)
}

type yamlActivity struct {
	ID              string  `yaml:"id"`
	Type            string  `yaml:"type"`
	Name            string  `yaml:"name,omitempty"`
	StartTime       string  `yaml:"start_time"`
	DurationMinutes float64 `yaml:"duration_minutes,omitempty"`
	DistanceKm      float64 `yaml:"distance_km,omitempty"`
}

type yamlProtocol struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Peptide   string `yaml:"peptide"`
	Dose      string `yaml:"dose"`
	Frequency string `yaml:"frequency"`
	Schedule  string `yaml:"schedule"`
	StartDate string `yaml:"start_date"`
	Status    string `yaml:"status"`
	Notes     string `yaml:"notes,omitempty"`
}

type yamlDose struct {
	Date   string `yaml:"date"`
	Number int    `yaml:"number"`
	Dose   string `yaml:"dose"`
	Status string `yaml:"status"`
	Notes  string `yaml:"notes,omitempty"`
}

// ExportMarkdown exports one user's data as Markdown. A non-nil since limits
// daily rows, activities and doses to that date onward.
func (d *DB) ExportMarkdown(userID string, since *time.Time) (string, error) {
	var from time.Time
	if since != nil {
		from = *since
	}

	days, err := d.ListDailySummaries(userID, from, time.Time{})
	if err != nil {
		return "", err
	}
	protocols, err := d.ListProtocols(userID, false)
	if err != nil {
		return "", err
	}
	doses, err := d.ListDoseLogs(userID, from, time.Time{})
	if err != nil {
		return "", err
	}
	activities, err := d.ListActivities(userID, 0)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# PepMetrics Export - %s\n\n", now.Format(models.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(days) > 0 {
		sb.WriteString("## Daily Summaries\n\n")
		sb.WriteString("| Date | HRV | Resting HR | Sleep | Sleep h | Stress | Body Battery | Steps |\n")
		sb.WriteString("|------|-----|------------|-------|---------|--------|--------------|-------|\n")
		for _, s := range days {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				s.Date, fmtFloat(s.HRVAvg, "%.0f"), fmtFloat(s.RestingHR, "%.0f"),
				fmtFloat(s.SleepScore, "%.0f"), fmtFloat(s.SleepDurationHours, "%.1f"),
				fmtFloat(s.StressAvg, "%.0f"), fmtRange(s.BodyBatteryLow, s.BodyBatteryHigh),
				fmtInt(s.Steps)))
		}
		sb.WriteString("\n")
	}

	if len(protocols) > 0 {
		sb.WriteString("## Protocols\n\n")
		sb.WriteString("| Peptide | Dose | Schedule | Start | Status |\n")
		sb.WriteString("|---------|------|----------|-------|--------|\n")
		for _, p := range protocols {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				p.PeptideName, p.Dose, p.ScheduleSummary(),
				p.StartDate.Format(models.DateLayout), p.Status))
		}
		sb.WriteString("\n")
	}

	if len(doses) > 0 {
		grouped := make(map[string][]models.DoseLog)
		for _, dl := range doses {
			grouped[dl.PeptideName] = append(grouped[dl.PeptideName], dl)
		}

		// Sort peptides for consistent output
		var peptides []string
		for p := range grouped {
			peptides = append(peptides, p)
		}
		sort.Strings(peptides)

		for _, p := range peptides {
			sb.WriteString(fmt.Sprintf("## Doses: %s\n\n", p))
			sb.WriteString("| Date | # | Dose | Status | Notes |\n")
			sb.WriteString("|------|---|------|--------|-------|\n")
			for _, dl := range grouped[p] {
				notes := ""
				if dl.Notes != nil {
					notes = *dl.Notes
				}
				sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
					dl.Date(), dl.DoseNumber, dl.Dose, dl.Status, notes))
			}
			sb.WriteString("\n")
		}
	}

	var recent []*models.ParsedActivity
	for _, a := range activities {
		if since == nil || !a.StartTime.Before(*since) {
			recent = append(recent, a)
		}
	}
	if len(recent) > 0 {
		sb.WriteString("## Activities\n\n")
		sb.WriteString("| Date | Type | Duration | Distance | Avg HR |\n")
		sb.WriteString("|------|------|----------|----------|--------|\n")
		for _, a := range recent {
			duration := ""
			if a.DurationSeconds != nil {
				duration = fmt.Sprintf("%.0f min", *a.DurationSeconds/60)
			}
			distance := ""
			if a.DistanceMeters != nil {
				distance = fmt.Sprintf("%.2f km", *a.DistanceMeters/1000)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				a.StartTime.Format("2006-01-02 15:04"), a.ActivityType,
				duration, distance, fmtInt(a.AvgHeartRate)))
		}
	}

	return sb.String(), nil
}

func fmtFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtRange(low, high *float64) string {
	if low == nil && high == nil {
		return "-"
	}
	return fmtFloat(low, "%.0f") + "-" + fmtFloat(high, "%.0f")
}
