// ABOUTME: Tracker service joining storage, the dose scheduler and analysis.
// ABOUTME: Shared by the CLI and the MCP server so both answer the same way.
package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/schedule"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
)

// Service answers tracker questions for one user.
type Service struct {
	repo   storage.Repository
	userID string
	now    func() time.Time
}

// New creates a service for userID.
func New(repo storage.Repository, userID string) *Service {
	return &Service{repo: repo, userID: userID, now: time.Now}
}

// WithClock overrides the clock used to decide "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UserID returns the user the service reads and writes for.
func (s *Service) UserID() string { return s.userID }

// Repo returns the underlying repository.
func (s *Service) Repo() storage.Repository { return s.repo }

// Today returns the current calendar date.
func (s *Service) Today() time.Time {
	return schedule.Day(s.now())
}

// Report analyzes the seven days ending on weekEnd. A zero weekEnd means today.
func (s *Service) Report(weekEnd time.Time) (*analysis.Report, error) {
	if weekEnd.IsZero() {
		weekEnd = s.Today()
	}
	start, end := analysis.WeekBounds(weekEnd)
	from := start.AddDate(0, 0, -analysis.BaselineWindowDays)

	days, err := s.repo.ListDailySummaries(s.userID, from, end)
	if err != nil {
		return nil, err
	}
	doses, err := s.repo.ListDoseLogs(s.userID, from, end)
	if err != nil {
		return nil, err
	}
	protocols, err := s.repo.ListProtocols(s.userID, false)
	if err != nil {
		return nil, err
	}

	return analysis.BuildReport(analysis.ReportInput{
		Days:      days,
		Doses:     doses,
		Protocols: protocols,
		WeekStart: start,
		WeekEnd:   end,
	}), nil
}

// Validate checks whether the data up to today supports analysis.
func (s *Service) Validate() (analysis.ValidationResult, error) {
	r, err := s.Report(time.Time{})
	if err != nil {
		return analysis.ValidationResult{}, err
	}
	return r.Validation, nil
}

// scheduleInputs loads the user's protocols and every dose log up to today.
func (s *Service) scheduleInputs(activeOnly bool) ([]*models.Protocol, []models.DoseLog, error) {
	protocols, err := s.repo.ListProtocols(s.userID, activeOnly)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.repo.ListDoseLogs(s.userID, time.Time{}, s.Today())
	if err != nil {
		return nil, nil, err
	}
	return protocols, logs, nil
}

// DueToday lists today's unlogged doses.
func (s *Service) DueToday() ([]schedule.DueDose, error) {
	protocols, logs, err := s.scheduleInputs(true)
	if err != nil {
		return nil, err
	}
	return schedule.DueToday(protocols, logs, s.Today()), nil
}

// Overdue lists active protocols whose next expected dose has passed.
func (s *Service) Overdue() ([]*models.Protocol, error) {
	protocols, logs, err := s.scheduleInputs(true)
	if err != nil {
		return nil, err
	}
	return schedule.Overdue(protocols, logs, s.Today()), nil
}

// Calendar lists dose slots of every protocol between from and to.
func (s *Service) Calendar(from, to time.Time) ([]schedule.Slot, error) {
	protocols, err := s.repo.ListProtocols(s.userID, false)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListDoseLogs(s.userID, from, to)
	if err != nil {
		return nil, err
	}

	var out []schedule.Slot
	for _, p := range protocols {
		slots, err := schedule.ScheduleRange(p, logs, from, to, s.Today())
		if err != nil {
			return nil, err
		}
		out = append(out, slots...)
	}
	sortSlots(out)
	return out, nil
}

// DoseRequest describes a dose to record.
type DoseRequest struct {
	Protocol   string // ID or ID prefix
	Day        time.Time
	DoseNumber int
	Status     models.DoseStatus
	Notes      string
}

// RecordDose logs a taken or skipped dose. A zero Day means today.
func (s *Service) RecordDose(req DoseRequest) (*models.DoseLog, error) {
	p, err := s.repo.GetProtocol(req.Protocol)
	if err != nil {
		return nil, err
	}
	if req.Status != models.DoseTaken && req.Status != models.DoseSkipped {
		return nil, fmt.Errorf("dose status must be %s or %s, got %q", models.DoseTaken, models.DoseSkipped, req.Status)
	}

	day := req.Day
	if day.IsZero() {
		day = s.Today()
	}
	day = schedule.Day(day)
	if day.Before(schedule.Day(p.StartDate)) {
		return nil, fmt.Errorf("%s starts on %s", p.PeptideName, p.StartDate.Format(models.DateLayout))
	}

	n := req.DoseNumber
	if n < 1 {
		n = 1
	}
	perDay := p.DosesPerDay
	if perDay < 1 {
		perDay = 1
	}
	if n > perDay {
		return nil, fmt.Errorf("%s is taken %d time(s) per day, no dose #%d", p.PeptideName, perDay, n)
	}

	dl := models.NewDoseLog(p, day, req.Status).WithDoseNumber(n)
	if dl.UserID == "" {
		dl.UserID = s.userID
	}
	if strings.TrimSpace(req.Notes) != "" {
		dl.WithNotes(strings.TrimSpace(req.Notes))
	}
	if err := s.repo.LogDose(dl); err != nil {
		return nil, err
	}
	return dl, nil
}

// UndoDose removes a logged dose. A zero day means today.
func (s *Service) UndoDose(protocol string, day time.Time, doseNumber int) (*models.Protocol, error) {
	p, err := s.repo.GetProtocol(protocol)
	if err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.Today()
	}
	if err := s.repo.UndoDose(p.ID, schedule.Day(day), doseNumber); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseDay parses a YYYY-MM-DD date, "today" or "yesterday". An empty string
// yields the zero time.
func (s *Service) ParseDay(v string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return time.Time{}, nil
	case "today":
		return s.Today(), nil
	case "yesterday":
		return s.Today().AddDate(0, 0, -1), nil
	}
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", v)
	}
	return t, nil
}
