// ABOUTME: Dose scheduler evaluating protocol recurrence rules against calendar days.
// ABOUTME: Computes due, overdue, next dose and statused calendar ranges from dose logs.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

// MaxRangeDays caps how many days a range query walks.
const MaxRangeDays = 366

// Day truncates t to its calendar date, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// IsScheduledOn reports whether the protocol's rule puts a dose on day.
// Pause state is not considered.
func IsScheduledOn(p *models.Protocol, day time.Time) bool {
	day = Day(day)
	start := Day(p.StartDate)
	if day.Before(start) {
		return false
	}

	switch p.Frequency {
	case models.FrequencyDaily:
		return true
	case models.FrequencySpecificDays:
		for _, wd := range p.Weekdays {
			if wd == day.Weekday() {
				return true
			}
		}
		return false
	case models.FrequencyEveryXDays:
		if p.IntervalDays <= 0 {
			return false
		}
		return daysBetween(start, day)%p.IntervalDays == 0
	case models.FrequencyCycling:
		period := p.CycleOnDays + p.CycleOffDays
		if p.CycleOnDays <= 0 || period <= 0 {
			return false
		}
		cycleStart := start
		if p.CycleStartDate != nil {
			cycleStart = Day(*p.CycleStartDate)
		}
		if day.Before(cycleStart) {
			return false
		}
		return daysBetween(cycleStart, day)%period < p.CycleOnDays
	}
	return false
}

// logsFor returns the protocol's logs scheduled on day.
func logsFor(p *models.Protocol, logs []models.DoseLog, day time.Time) []models.DoseLog {
	key := Day(day).Format(models.DateLayout)
	var out []models.DoseLog
	for _, l := range logs {
		if l.ProtocolID == p.ID && Day(l.ScheduledFor).Format(models.DateLayout) == key {
			out = append(out, l)
		}
	}
	return out
}

// IsDueToday reports whether an active protocol still has an unlogged dose today.
// Taken and skipped entries both count as logged.
func IsDueToday(p *models.Protocol, logs []models.DoseLog, today time.Time) bool {
	if !p.IsActive() || !IsScheduledOn(p, today) {
		return false
	}
	logged := 0
	for _, l := range logsFor(p, logs, today) {
		if l.Status == models.DoseTaken || l.Status == models.DoseSkipped {
			logged++
		}
	}
	return logged < dosesPerDay(p)
}

// NextDoseDate returns the first scheduled day on or after from.
func NextDoseDate(p *models.Protocol, from time.Time) (time.Time, bool) {
	day := Day(from)
	if start := Day(p.StartDate); day.Before(start) {
		day = start
	}
	for i := 0; i <= MaxRangeDays+searchPeriod(p); i++ {
		if IsScheduledOn(p, day) {
			return day, true
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

func searchPeriod(p *models.Protocol) int {
	switch p.Frequency {
	case models.FrequencyEveryXDays:
		return p.IntervalDays
	case models.FrequencyCycling:
		return p.CycleOnDays + p.CycleOffDays
	}
	return 7
}

// LastTaken returns the most recent taken dose for the protocol.
func LastTaken(p *models.Protocol, logs []models.DoseLog) (*models.DoseLog, bool) {
	var last *models.DoseLog
	for i := range logs {
		l := &logs[i]
		if l.ProtocolID != p.ID || l.Status != models.DoseTaken {
			continue
		}
		if last == nil || l.ScheduledFor.After(last.ScheduledFor) {
			last = l
		}
	}
	return last, last != nil
}

// IsOverdue projects the next expected dose after the last taken one (or the
// first scheduled day when nothing was taken) and reports whether it falls
// before today.
func IsOverdue(p *models.Protocol, logs []models.DoseLog, today time.Time) bool {
	if !p.IsActive() {
		return false
	}
	from := p.StartDate
	if last, ok := LastTaken(p, logs); ok {
		from = Day(last.ScheduledFor).AddDate(0, 0, 1)
	}
	next, ok := NextDoseDate(p, from)
	if !ok {
		return false
	}
	return next.Before(Day(today))
}

// Slot is one scheduled dose in a calendar range.
type Slot struct {
	ProtocolID  string            `json:"protocol_id"`
	PeptideName string            `json:"peptide_name"`
	Dose        string            `json:"dose"`
	Date        string            `json:"date"`
	DoseNumber  int               `json:"dose_number"`
	Status      models.DoseStatus `json:"status"`
}

// ScheduleRange lists every dose slot between from and to (inclusive). The
// window is capped at MaxRangeDays. Logged slots take their logged status;
// others are overdue before today and pending from today on. Paused
// protocols only produce slots that were already logged.
func ScheduleRange(p *models.Protocol, logs []models.DoseLog, from, to, today time.Time) ([]Slot, error) {
	from, to, today = Day(from), Day(to), Day(today)
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	if daysBetween(from, to) >= MaxRangeDays {
		to = from.AddDate(0, 0, MaxRangeDays-1)
	}

	var slots []Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !IsScheduledOn(p, day) {
			continue
		}
		byNumber := make(map[int]models.DoseStatus)
		for _, l := range logsFor(p, logs, day) {
			byNumber[l.DoseNumber] = l.Status
		}
		for n := 1; n <= dosesPerDay(p); n++ {
			status, logged := byNumber[n]
			if !logged {
				if !p.IsActive() {
					continue
				}
				status = models.DosePending
				if day.Before(today) {
					status = models.DoseOverdue
				}
			}
			slots = append(slots, Slot{
				ProtocolID:  p.ID.String(),
				PeptideName: p.PeptideName,
				Dose:        p.Dose,
				Date:        day.Format(models.DateLayout),
				DoseNumber:  n,
				Status:      status,
			})
		}
	}
	return slots, nil
}

// DueDose is an unlogged dose for today.
type DueDose struct {
	Protocol   *models.Protocol `json:"protocol"`
	DoseNumber int              `json:"dose_number"`
}

// DueToday lists the lowest unlogged dose number of every due protocol,
// ordered by peptide name.
func DueToday(protocols []*models.Protocol, logs []models.DoseLog, today time.Time) []DueDose {
	var out []DueDose
	for _, p := range protocols {
		if !IsDueToday(p, logs, today) {
			continue
		}
		logged := make(map[int]bool)
		for _, l := range logsFor(p, logs, today) {
			logged[l.DoseNumber] = true
		}
		n := 1
		for logged[n] {
			n++
		}
		out = append(out, DueDose{Protocol: p, DoseNumber: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Protocol.PeptideName < out[j].Protocol.PeptideName
	})
	return out
}

// Overdue lists active protocols whose next expected dose has passed.
func Overdue(protocols []*models.Protocol, logs []models.DoseLog, today time.Time) []*models.Protocol {
	var out []*models.Protocol
	for _, p := range protocols {
		if IsOverdue(p, logs, today) {
			out = append(out, p)
		}
	}
	return out
}

func dosesPerDay(p *models.Protocol) int {
	if p.DosesPerDay < 1 {
		return 1
	}
	return p.DosesPerDay
}
