// ABOUTME: Shared terminal formatting helpers for CLI output.
// ABOUTME: Padding, truncation, optional values and short IDs.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var faint = color.New(color.Faint)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// optFloat formats v with format, or "-" when unset.
func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// optInt formats v, or "-" when unset.
func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
