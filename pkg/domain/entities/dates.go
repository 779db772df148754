package entities

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for all dates exchanged with callers.
const DayFormat = "2006-01-02"

// Day truncates a timestamp to UTC midnight. All planning math operates on days.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO YYYY-MM-DD date string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day(t), nil
}

// FormatDay renders a date as ISO YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// AddDays returns the date n days after t (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days from a to b (negative if b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DateWindow is an inclusive date range.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow creates a validated inclusive date window.
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return DateWindow{}, NewValidationError("window",
			fmt.Sprintf("end %s precedes start %s", FormatDay(end), FormatDay(start)))
	}
	return DateWindow{Start: start, End: end}, nil
}

// Contains reports whether d falls inside the window (inclusive).
func (w DateWindow) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the window length in days, inclusive of both endpoints.
func (w DateWindow) Days() int {
	return DaysBetween(w.Start, w.End) + 1
}
