package server

import (
	"strings"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
)

// parseOptionalDate reads a YYYY-MM-DD value, falling back to fallback when empty.
func parseOptionalDate(value string, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return calendar.Day(fallback), nil
	}
	return calendar.ParseISO(trimmed)
}
