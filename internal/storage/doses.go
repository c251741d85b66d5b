// ABOUTME: Dose log persistence. One entry per (protocol, date, dose number).
// ABOUTME: Logging again replaces the entry; undo deletes it outright.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/google/uuid"
)

const doseColumns = `id, user_id, protocol_id, peptide_name, dose, dose_number, status,
	scheduled_for, taken_at, notes, created_at`

// LogDose records a taken or skipped dose, replacing any entry for the same slot.
func (d *DB) LogDose(dl *models.DoseLog) error {
	if dl.Status != models.DoseTaken && dl.Status != models.DoseSkipped {
		return fmt.Errorf("log dose: status must be taken or skipped, got %s", dl.Status)
	}
	if dl.DoseNumber < 1 {
		dl.DoseNumber = 1
	}
	day := dl.ScheduledFor.Format(models.DateLayout)

	return d.withTx(func(tx *sql.Tx) error {
		query := `INSERT INTO dose_logs (` + doseColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (protocol_id, scheduled_for, dose_number) DO UPDATE SET
				status = excluded.status,
				taken_at = excluded.taken_at,
				notes = excluded.notes`
		_, err := tx.Exec(d.rebind(query),
			dl.ID.String(),
			dl.UserID,
			dl.ProtocolID.String(),
			dl.PeptideName,
			dl.Dose,
			dl.DoseNumber,
			string(dl.Status),
			day,
			nullTime(dl.TakenAt, time.RFC3339),
			nullString(dl.Notes),
			dl.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("log dose: %w", err)
		}

		var id string
		err = tx.QueryRow(d.rebind(`SELECT id FROM dose_logs WHERE protocol_id = ? AND scheduled_for = ? AND dose_number = ?`),
			dl.ProtocolID.String(), day, dl.DoseNumber).Scan(&id)
		if err != nil {
			return fmt.Errorf("log dose: %w", err)
		}
		dl.ID, _ = uuid.Parse(id)
		return nil
	})
}

// UndoDose deletes the entry for one dose slot.
func (d *DB) UndoDose(protocolID uuid.UUID, day time.Time, doseNumber int) error {
	if doseNumber < 1 {
		doseNumber = 1
	}
	key := day.Format(models.DateLayout)
	result, err := d.db.Exec(d.rebind(`DELETE FROM dose_logs WHERE protocol_id = ? AND scheduled_for = ? AND dose_number = ?`),
		protocolID.String(), key, doseNumber)
	if err != nil {
		return fmt.Errorf("undo dose: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("undo dose: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no dose logged on %s", ErrNotFound, key)
	}
	return nil
}

// ListDoseLogs returns the user's entries between from and to (inclusive, by
// date), oldest first. A zero bound leaves that side open; an empty userID
// spans all users.
func (d *DB) ListDoseLogs(userID string, from, to time.Time) ([]models.DoseLog, error) {
	query, args := userFilter(`SELECT `+doseColumns+` FROM dose_logs`, userID)
	if !from.IsZero() {
		query += " AND scheduled_for >= ?"
		args = append(args, from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		query += " AND scheduled_for <= ?"
		args = append(args, to.Format(models.DateLayout))
	}
	query += " ORDER BY scheduled_for, peptide_name, dose_number"

	rows, err := d.db.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}
	defer rows.Close()

	var out []models.DoseLog
	for rows.Next() {
		var dl models.DoseLog
		var idStr, protocolID, status, scheduled, createdAt string
		var takenAt, notes sql.NullString

		err := rows.Scan(&idStr, &dl.UserID, &protocolID, &dl.PeptideName, &dl.Dose,
			&dl.DoseNumber, &status, &scheduled, &takenAt, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan dose log: %w", err)
		}

		dl.ID, _ = uuid.Parse(idStr)
		dl.ProtocolID, _ = uuid.Parse(protocolID)
		dl.Status = models.DoseStatus(status)
		dl.ScheduledFor, _ = time.Parse(models.DateLayout, scheduled)
		dl.TakenAt = timePtr(takenAt, time.RFC3339)
		dl.Notes = stringPtr(notes)
		dl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		out = append(out, dl)
	}
	return out, rows.Err()
}
