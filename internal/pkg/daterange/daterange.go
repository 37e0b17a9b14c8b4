package daterange

import (
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a Range from two instants, truncating both to their calendar day.
func New(start, end time.Time) Range {
	return Range{Start: Day(start), End: Day(end)}
}

// Parse reads a YYYY-MM-DD string into a UTC calendar day.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Day drops the time of day and zone, keeping the calendar date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now.
func Today(now time.Time) time.Time {
	return Day(now)
}

// DaysBetweenInclusive counts calendar days from start to end, both endpoints included.
// A same-day range is one day. It returns 0 when end is before start.
func DaysBetweenInclusive(start, end time.Time) int {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// Days returns the inclusive day count of r.
func (r Range) Days() int {
	return DaysBetweenInclusive(r.Start, r.End)
}

// Overlaps reports whether two inclusive ranges share at least one day.
func Overlaps(a, b Range) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// Overlaps reports whether r shares at least one day with other.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r, other)
}

func (r Range) String() string {
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}
