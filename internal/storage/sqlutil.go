// ABOUTME: Small SQL helpers shared by every table: null conversions and user scoping.
// ABOUTME: Optional model fields map to database/sql null types and back.
package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is wrapped by lookups that match no record.
var ErrNotFound = errors.New("not found")

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullTime(v *time.Time, layout string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.UTC().Format(layout), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullString, layout string) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(layout, v.String)
	if err != nil {
		return nil
	}
	return &t
}

// userFilter starts a WHERE clause scoped to userID, or to every user when
// userID is empty. Callers append further conditions with AND.
func userFilter(base, userID string) (string, []any) {
	if userID == "" {
		return base + " WHERE 1 = 1", nil
	}
	return base + " WHERE user_id = ?", []any{userID}
}
