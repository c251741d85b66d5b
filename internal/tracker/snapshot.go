// ABOUTME: Point-in-time views of a user's data for dashboards and resources.
// ABOUTME: Today covers the current date; Overview covers the recent week.
package tracker

import (
	"errors"
	"sort"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/schedule"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
)

// TodayView is everything known about the current date.
type TodayView struct {
	Date    string                     `json:"date"`
	Summary *models.DailyHealthSummary `json:"summary,omitempty"`
	Due     []schedule.DueDose         `json:"due"`
	Logged  []models.DoseLog           `json:"logged"`
	Overdue []string                   `json:"overdue,omitempty"`
}

// TodayView gathers today's summary, logged doses and what is still due.
func (s *Service) TodayView() (*TodayView, error) {
	today := s.Today()
	view := &TodayView{Date: today.Format(models.DateLayout)}

	summary, err := s.repo.GetDailySummary(s.userID, view.Date)
	switch {
	case err == nil:
		view.Summary = summary
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	protocols, logs, err := s.scheduleInputs(true)
	if err != nil {
		return nil, err
	}
	view.Due = schedule.DueToday(protocols, logs, today)
	for _, l := range logs {
		if l.Date() == view.Date {
			view.Logged = append(view.Logged, l)
		}
	}
	for _, p := range schedule.Overdue(protocols, logs, today) {
		view.Overdue = append(view.Overdue, p.PeptideName)
	}
	return view, nil
}

// Overview summarizes the last seven days and the tracker state.
type Overview struct {
	GeneratedAt     time.Time                   `json:"generated_at"`
	Days            []models.DailyHealthSummary `json:"recent_days"`
	ActiveProtocols []*models.Protocol          `json:"active_protocols"`
	DosesThisWeek   map[string]int              `json:"doses_this_week"`
	Baseline        analysis.BaselineMetrics    `json:"baseline"`
	Validation      analysis.ValidationResult   `json:"validation"`
}

// Overview builds the dashboard summary.
func (s *Service) Overview() (*Overview, error) {
	r, err := s.Report(time.Time{})
	if err != nil {
		return nil, err
	}
	start, end := analysis.WeekBounds(s.Today())
	days, err := s.repo.ListDailySummaries(s.userID, start, end)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.ListProtocols(s.userID, true)
	if err != nil {
		return nil, err
	}
	return &Overview{
		GeneratedAt:     s.now(),
		Days:            days,
		ActiveProtocols: active,
		DosesThisWeek:   r.DosesByPep,
		Baseline:        r.Baseline,
		Validation:      r.Validation,
	}, nil
}

func sortSlots(slots []schedule.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		if slots[i].PeptideName != slots[j].PeptideName {
			return slots[i].PeptideName < slots[j].PeptideName
		}
		return slots[i].DoseNumber < slots[j].DoseNumber
	})
}
