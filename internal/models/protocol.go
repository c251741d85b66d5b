// ABOUTME: Protocol model describing a peptide dosing recurrence rule.
// ABOUTME: Supports daily, specific weekdays, every-N-days and on/off cycling.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FrequencyType is the recurrence rule of a protocol.
type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencySpecificDays FrequencyType = "specific-days"
	FrequencyEveryXDays   FrequencyType = "every-x-days"
	FrequencyCycling      FrequencyType = "cycling"
)

// ProtocolStatus is active or paused.
type ProtocolStatus string

const (
	ProtocolActive ProtocolStatus = "active"
	ProtocolPaused ProtocolStatus = "paused"
)

// IsValidFrequency checks if a string is a known frequency type.
func IsValidFrequency(s string) bool {
	switch FrequencyType(s) {
	case FrequencyDaily, FrequencySpecificDays, FrequencyEveryXDays, FrequencyCycling:
		return true
	}
	return false
}

// Protocol is a recurring dosing plan for one peptide.
type Protocol struct {
	ID             uuid.UUID      `json:"id" yaml:"id"`
	UserID         string         `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name           string         `json:"name" yaml:"name"`
	PeptideName    string         `json:"peptide_name" yaml:"peptide_name"`
	Dose           string         `json:"dose" yaml:"dose"`
	Frequency      FrequencyType  `json:"frequency" yaml:"frequency"`
	Weekdays       []time.Weekday `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	IntervalDays   int            `json:"interval_days,omitempty" yaml:"interval_days,omitempty"`
	CycleOnDays    int            `json:"cycle_on_days,omitempty" yaml:"cycle_on_days,omitempty"`
	CycleOffDays   int            `json:"cycle_off_days,omitempty" yaml:"cycle_off_days,omitempty"`
	CycleStartDate *time.Time     `json:"cycle_start_date,omitempty" yaml:"cycle_start_date,omitempty"`
	StartDate      time.Time      `json:"start_date" yaml:"start_date"`
	DosesPerDay    int            `json:"doses_per_day" yaml:"doses_per_day"`
	Status         ProtocolStatus `json:"status" yaml:"status"`
	Notes          *string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
}

// NewProtocol creates an active daily protocol starting today.
func NewProtocol(name, peptide, dose string) *Protocol {
	now := time.Now()
	return &Protocol{
		ID:          uuid.New(),
		Name:        name,
		PeptideName: peptide,
		Dose:        dose,
		Frequency:   FrequencyDaily,
		StartDate:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		DosesPerDay: 1,
		Status:      ProtocolActive,
		CreatedAt:   now,
	}
}

// WithStartDate sets the first day the protocol can be scheduled.
func (p *Protocol) WithStartDate(t time.Time) *Protocol {
	p.StartDate = t
	return p
}

// WithWeekdays switches the protocol to specific weekdays.
func (p *Protocol) WithWeekdays(days ...time.Weekday) *Protocol {
	p.Frequency = FrequencySpecificDays
	p.Weekdays = days
	return p
}

// WithInterval switches the protocol to every-N-days.
func (p *Protocol) WithInterval(days int) *Protocol {
	p.Frequency = FrequencyEveryXDays
	p.IntervalDays = days
	return p
}

// WithCycle switches the protocol to on/off cycling.
func (p *Protocol) WithCycle(on, off int, cycleStart *time.Time) *Protocol {
	p.Frequency = FrequencyCycling
	p.CycleOnDays = on
	p.CycleOffDays = off
	p.CycleStartDate = cycleStart
	return p
}

// WithNotes sets notes on the protocol.
func (p *Protocol) WithNotes(notes string) *Protocol {
	p.Notes = &notes
	return p
}

// IsActive reports whether the protocol is currently active.
func (p *Protocol) IsActive() bool {
	return p.Status == ProtocolActive
}

// Validate checks that the recurrence parameters are usable.
func (p *Protocol) Validate() error {
	if strings.TrimSpace(p.PeptideName) == "" {
		return fmt.Errorf("peptide name is required")
	}
	if p.DosesPerDay < 1 {
		return fmt.Errorf("doses per day must be at least 1")
	}
	switch p.Frequency {
	case FrequencyDaily:
	case FrequencySpecificDays:
		if len(p.Weekdays) == 0 {
			return fmt.Errorf("specific-days protocol needs at least one weekday")
		}
	case FrequencyEveryXDays:
		if p.IntervalDays < 1 {
			return fmt.Errorf("every-x-days protocol needs an interval of at least 1")
		}
	case FrequencyCycling:
		if p.CycleOnDays < 1 || p.CycleOffDays < 0 {
			return fmt.Errorf("cycling protocol needs on days >= 1 and off days >= 0")
		}
	default:
		return fmt.Errorf("unknown frequency: %s", p.Frequency)
	}
	return nil
}

// FormatWeekdays encodes weekdays as a comma separated list of numbers (Sunday=0).
func FormatWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays accepts numbers (0-6) or three-letter names, comma separated.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		var d time.Weekday
		if n, err := strconv.Atoi(part); err == nil {
			if n < 0 || n > 6 {
				return nil, fmt.Errorf("weekday out of range: %d", n)
			}
			d = time.Weekday(n)
		} else {
			name := part
			if len(name) > 3 {
				name = name[:3]
			}
			wd, ok := weekdayNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown weekday: %s", part)
			}
			d = wd
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

// ScheduleSummary renders the recurrence as a short phrase, e.g. "Mon, Thu".
func (p *Protocol) ScheduleSummary() string {
	var base string
	switch p.Frequency {
	case FrequencySpecificDays:
		names := make([]string, 0, len(p.Weekdays))
		for _, wd := range p.Weekdays {
			names = append(names, wd.String()[:3])
		}
		base = strings.Join(names, ", ")
	case FrequencyEveryXDays:
		base = fmt.Sprintf("every %d days", p.IntervalDays)
	case FrequencyCycling:
		base = fmt.Sprintf("%d on / %d off", p.CycleOnDays, p.CycleOffDays)
	default:
		base = "daily"
	}
	if p.DosesPerDay > 1 {
		base += fmt.Sprintf(", %dx per day", p.DosesPerDay)
	}
	return base
}
