package date

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Format renders t as a plain calendar date (YYYY-MM-DD).
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse reads a calendar date. Timestamps like
// "2024-06-01T08:00:00" are truncated to their date part.
func Parse(s string) (time.Time, error) {
	if len(s) > len(Layout) {
		s = s[:len(Layout)]
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// SameDay reports whether a and b fall on the same calendar date.
// Both values are compared as-is; callers are expected to keep
// times in a single consistent location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Range returns every date from start to end inclusive.
// An inverted range yields nil.
func Range(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
