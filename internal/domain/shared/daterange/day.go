package daterange

import (
	"errors"
	"strings"
	"time"
)

// Layout is the wire format of a calendar day.
const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("daterange: day must be formatted as YYYY-MM-DD")

// StartOfDay returns midnight of t's calendar day in t's own location.
func StartOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDay renders the calendar fields of t. The zero time renders as "".
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// TruncateDay cuts the time component off an ISO-like date string.
func TruncateDay(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "T "); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// ParseDay reads a YYYY-MM-DD day (time component ignored) as midnight in loc.
// An empty string yields the zero time.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = TruncateDay(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, raw, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// SameDay reports whether a and b fall on the same calendar day, each read
// in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FirstOfMonth returns midnight of the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysInMonth uses day 0 of the following month, which is the last day of
// the requested one.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
