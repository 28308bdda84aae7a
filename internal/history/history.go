package history

import (
	"errors"
	"sort"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
)

var ErrEmptyHistory = errors.New("empty_history")

// Entry is one effective-dated value.
type Entry[T comparable] struct {
	Date  time.Time
	Value T
}

// AttributeHistory tracks a member attribute over time at day granularity.
// Entries stay sorted by date and hold at most one value per day.
// The zero value is an empty history.
type AttributeHistory[T comparable] struct {
	entries []Entry[T]
}

// New builds a history from entries in any order. Later entries win on
// duplicate dates.
func New[T comparable](entries ...Entry[T]) AttributeHistory[T] {
	var h AttributeHistory[T]
	for _, e := range entries {
		h.Set(e.Date, e.Value)
	}
	return h
}

// Set records value effective from date, replacing any entry on that day.
func (h *AttributeHistory[T]) Set(date time.Time, value T) {
	day := calendar.Day(date)
	i := sort.Search(len(h.entries), func(i int) bool {
		return !h.entries[i].Date.Before(day)
	})
	if i < len(h.entries) && h.entries[i].Date.Equal(day) {
		h.entries[i].Value = value
		return
	}
	h.entries = append(h.entries, Entry[T]{})
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = Entry[T]{Date: day, Value: value}
}

// ValueAsOf returns the value of the latest entry on or before date. Dates
// before the first entry resolve to the earliest value.
func (h *AttributeHistory[T]) ValueAsOf(date time.Time) (T, error) {
	var zero T
	if len(h.entries) == 0 {
		return zero, ErrEmptyHistory
	}
	day := calendar.Day(date)
	i := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].Date.After(day)
	})
	if i == 0 {
		return h.entries[0].Value, nil
	}
	return h.entries[i-1].Value, nil
}

// Latest returns the most recently effective value.
func (h *AttributeHistory[T]) Latest() (T, error) {
	var zero T
	if len(h.entries) == 0 {
		return zero, ErrEmptyHistory
	}
	return h.entries[len(h.entries)-1].Value, nil
}

func (h *AttributeHistory[T]) Len() int { return len(h.entries) }

// Entries returns a copy in chronological order.
func (h *AttributeHistory[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(h.entries))
	copy(out, h.entries)
	return out
}
