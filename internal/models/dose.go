// ABOUTME: DoseLog model recording what happened to one scheduled dose.
// ABOUTME: Keyed on (protocol, scheduled_for, dose_number); undo deletes the entry.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DoseStatus is the state of a scheduled dose.
type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseSkipped DoseStatus = "skipped"
	DosePending DoseStatus = "pending"
	DoseOverdue DoseStatus = "overdue"
)

// DoseLog records a user action on a scheduled dose.
type DoseLog struct {
	ID           uuid.UUID  `json:"id" yaml:"id"`
	UserID       string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	ProtocolID   uuid.UUID  `json:"protocol_id" yaml:"protocol_id"`
	PeptideName  string     `json:"peptide_name" yaml:"peptide_name"`
	Dose         string     `json:"dose" yaml:"dose"`
	DoseNumber   int        `json:"dose_number" yaml:"dose_number"`
	Status       DoseStatus `json:"status" yaml:"status"`
	ScheduledFor time.Time  `json:"scheduled_for" yaml:"scheduled_for"`
	TakenAt      *time.Time `json:"taken_at,omitempty" yaml:"taken_at,omitempty"`
	Notes        *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
}

// NewDoseLog creates a log entry for dose number 1 of a protocol on a date.
func NewDoseLog(p *Protocol, scheduledFor time.Time, status DoseStatus) *DoseLog {
	d := &DoseLog{
		ID:           uuid.New(),
		UserID:       p.UserID,
		ProtocolID:   p.ID,
		PeptideName:  p.PeptideName,
		Dose:         p.Dose,
		DoseNumber:   1,
		Status:       status,
		ScheduledFor: scheduledFor,
		CreatedAt:    time.Now(),
	}
	if status == DoseTaken {
		t := d.CreatedAt
		d.TakenAt = &t
	}
	return d
}

// WithDoseNumber sets which of the day's doses this entry covers.
func (d *DoseLog) WithDoseNumber(n int) *DoseLog {
	d.DoseNumber = n
	return d
}

// WithTakenAt overrides the time the dose was taken.
func (d *DoseLog) WithTakenAt(t time.Time) *DoseLog {
	d.TakenAt = &t
	return d
}

// WithNotes sets notes on the entry.
func (d *DoseLog) WithNotes(notes string) *DoseLog {
	d.Notes = &notes
	return d
}

// Date returns the calendar date the dose was scheduled for.
func (d *DoseLog) Date() string {
	return d.ScheduledFor.Format(DateLayout)
}
