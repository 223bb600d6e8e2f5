package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/wheelbook/backend/src/logger"
)

// DefaultDateFormat is the ledger date layout (ISO calendar date).
const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string using the default format.
// Logs a warning and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		logger.L.Warn("Error parsing date, returning zero time", "date", dateStr, "format", DefaultDateFormat, "error", err)
		return time.Time{}
	}
	return t
}

// ParseDateStrict parses a date string using the default format and reports malformed input.
func ParseDateStrict(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
	}
	return t, nil
}

// TruncateToDay drops the clock part of t and moves it to UTC.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(TruncateToDay(b).Sub(TruncateToDay(a)).Hours() / 24)
}

// StartOfWeek returns the Monday of t's ISO week.
func StartOfWeek(t time.Time) time.Time {
	day := TruncateToDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
