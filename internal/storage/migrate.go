// ABOUTME: Data migration between PepMetrics storage backends.
// ABOUTME: Copies daily rows, activities, protocols and dose logs from source to destination.

package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Summaries  int `json:"daily_summaries"`
	Activities int `json:"activities"`
	Protocols  int `json:"protocols"`
	Doses      int `json:"dose_logs"`
}

// MigrateData copies all data from src to dst storage, e.g. from the local
// sqlite file into postgres. Protocols are created before their dose logs.
// The destination should not already hold the source's protocols.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	data, err := src.GetAllData()
	if err != nil {
		return nil, fmt.Errorf("read source data: %w", err)
	}

	// Daily rows are written per user so upserts stay scoped.
	byUser := make(map[string][]models.DailyHealthSummary)
	var users []string
	for _, s := range data.Summaries {
		if _, ok := byUser[s.UserID]; !ok {
			users = append(users, s.UserID)
		}
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	for _, u := range users {
		n, err := dst.UpsertDailySummaries(u, byUser[u])
		if err != nil {
			return nil, fmt.Errorf("copy daily summaries for %s: %w", u, err)
		}
		summary.Summaries += n
	}

	for _, a := range data.Activities {
		res, err := dst.SaveActivities(a.UserID, []*models.ParsedActivity{a})
		if err != nil {
			return nil, fmt.Errorf("copy activity %s: %w", a.ID, err)
		}
		summary.Activities += res.Inserted + res.Updated
	}

	for _, p := range data.Protocols {
		if err := dst.CreateProtocol(p); err != nil {
			return nil, fmt.Errorf("copy protocol %s: %w", p.ID, err)
		}
		summary.Protocols++
	}

	for i := range data.Doses {
		dl := &data.Doses[i]
		if err := dst.LogDose(dl); err != nil {
			return nil, fmt.Errorf("copy dose log %s on %s: %w", dl.PeptideName, dl.ScheduledFor.Format(time.DateOnly), err)
		}
		summary.Doses++
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
