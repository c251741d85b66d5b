// ABOUTME: Protocol CRUD operations.
// ABOUTME: Protocols are addressed by full UUID or any unique ID prefix.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/google/uuid"
)

const protocolColumns = `id, user_id, name, peptide_name, dose, frequency, weekdays,
	interval_days, cycle_on_days, cycle_off_days, cycle_start_date, start_date,
	doses_per_day, status, notes, created_at`

// CreateProtocol stores a new protocol.
func (d *DB) CreateProtocol(p *models.Protocol) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("create protocol: %w", err)
	}

	query := `INSERT INTO protocols (` + protocolColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(d.rebind(query),
		p.ID.String(),
		p.UserID,
		p.Name,
		p.PeptideName,
		p.Dose,
		string(p.Frequency),
		models.FormatWeekdays(p.Weekdays),
		p.IntervalDays,
		p.CycleOnDays,
		p.CycleOffDays,
		nullTime(p.CycleStartDate, models.DateLayout),
		p.StartDate.Format(models.DateLayout),
		p.DosesPerDay,
		string(p.Status),
		nullString(p.Notes),
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create protocol: %w", err)
	}
	return nil
}

// GetProtocol retrieves a protocol by ID or ID prefix.
func (d *DB) GetProtocol(idOrPrefix string) (*models.Protocol, error) {
	id, err := d.resolveProtocolID(idOrPrefix)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(d.rebind(`SELECT `+protocolColumns+` FROM protocols WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get protocol: %w", err)
	}
	defer rows.Close()

	protocols, err := scanProtocols(rows)
	if err != nil {
		return nil, err
	}
	if len(protocols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return protocols[0], nil
}

// ListProtocols returns the user's protocols ordered by peptide name.
func (d *DB) ListProtocols(userID string, activeOnly bool) ([]*models.Protocol, error) {
	query, args := userFilter(`SELECT `+protocolColumns+` FROM protocols`, userID)
	if activeOnly {
		query += " AND status = ?"
		args = append(args, string(models.ProtocolActive))
	}
	query += " ORDER BY peptide_name, created_at"

	rows, err := d.db.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}
	defer rows.Close()

	return scanProtocols(rows)
}

// SetProtocolStatus pauses or resumes a protocol.
func (d *DB) SetProtocolStatus(idOrPrefix string, status models.ProtocolStatus) error {
	if status != models.ProtocolActive && status != models.ProtocolPaused {
		return fmt.Errorf("invalid protocol status: %s", status)
	}
	id, err := d.resolveProtocolID(idOrPrefix)
	if err != nil {
		return fmt.Errorf("set protocol status: %w", err)
	}

	result, err := d.db.Exec(d.rebind("UPDATE protocols SET status = ? WHERE id = ?"), string(status), id)
	if err != nil {
		return fmt.Errorf("set protocol status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set protocol status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return nil
}

// DeleteProtocol removes a protocol and its dose logs.
func (d *DB) DeleteProtocol(idOrPrefix string) error {
	id, err := d.resolveProtocolID(idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete protocol: %w", err)
	}

	return d.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(d.rebind("DELETE FROM dose_logs WHERE protocol_id = ?"), id); err != nil {
			return fmt.Errorf("delete protocol doses: %w", err)
		}
		result, err := tx.Exec(d.rebind("DELETE FROM protocols WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete protocol: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete protocol: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil
	})
}

// resolveProtocolID finds the full ID from a prefix.
func (d *DB) resolveProtocolID(idOrPrefix string) (string, error) {
	// If it looks like a full UUID, use it directly
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	rows, err := d.db.Query(d.rebind(`SELECT id FROM protocols WHERE id LIKE ?`), idOrPrefix+"%")
	if err != nil {
		return "", fmt.Errorf("resolve protocol ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan protocol ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve protocol ID: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
	}
	return matches[0], nil
}

func scanProtocols(rows *sql.Rows) ([]*models.Protocol, error) {
	var out []*models.Protocol
	for rows.Next() {
		var p models.Protocol
		var idStr, frequency, startDate, status, createdAt string
		var weekdays, cycleStart, notes sql.NullString
		var interval, cycleOn, cycleOff sql.NullInt64

		err := rows.Scan(&idStr, &p.UserID, &p.Name, &p.PeptideName, &p.Dose, &frequency,
			&weekdays, &interval, &cycleOn, &cycleOff, &cycleStart, &startDate,
			&p.DosesPerDay, &status, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan protocol: %w", err)
		}

		p.ID, _ = uuid.Parse(idStr)
		p.Frequency = models.FrequencyType(frequency)
		p.Status = models.ProtocolStatus(status)
		if weekdays.Valid {
			p.Weekdays, _ = models.ParseWeekdays(weekdays.String)
		}
		p.IntervalDays = int(interval.Int64)
		p.CycleOnDays = int(cycleOn.Int64)
		p.CycleOffDays = int(cycleOff.Int64)
		p.CycleStartDate = timePtr(cycleStart, models.DateLayout)
		p.StartDate, _ = time.Parse(models.DateLayout, startDate)
		p.Notes = stringPtr(notes)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		out = append(out, &p)
	}
	return out, rows.Err()
}
