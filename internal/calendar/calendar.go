// Package calendar holds the day and month arithmetic shared by the ledger.
// Every value it returns is midnight UTC.
package calendar

import (
	"errors"
	"strings"
	"time"
)

const (
	ISODate    = "2006-01-02"
	GermanDate = "02.01.2006"
	ShortDate  = "02.01.06"
)

var ErrInvalidDate = errors.New("invalid_date")

// Day truncates t to its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth pins t to day one of its month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths steps whole calendar months from the first of t's month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// Months lists the first day of every month from start to end inclusive.
// It returns nil when start lies in a later month than end.
func Months(start, end time.Time) []time.Time {
	first := FirstOfMonth(start)
	last := FirstOfMonth(end)
	if first.After(last) {
		return nil
	}
	var out []time.Time
	for m := first; !m.After(last); m = AddMonths(m, 1) {
		out = append(out, m)
	}
	return out
}

// ParseISO reads a strict YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseGerman reads a dd.mm.yyyy date.
func ParseGerman(s string) (time.Time, error) {
	t, err := time.Parse(GermanDate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func FormatISO(t time.Time) string { return t.Format(ISODate) }

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// GermanMonthName returns the German name of t's month.
func GermanMonthName(t time.Time) string {
	return germanMonths[t.Month()-1]
}
