package dataprocessing

import (
	"fmt"
	"strings"
	"time"
)

// WeekNumbering selects how weekly buckets are labelled. One policy is used
// for every weekly view produced by a process.
type WeekNumbering string

const (
	// WeekMonday counts weeks from the first Monday of the calendar year.
	// Days before that Monday fall in week 00, so labels never cross a year
	// boundary: 2023-01-01 (a Sunday) is 2023-W00.
	WeekMonday WeekNumbering = "monday"

	// WeekISO uses ISO-8601 year and week. Early January days may belong to
	// the previous ISO year: 2023-01-01 is 2022-W52.
	WeekISO WeekNumbering = "iso"
)

// ParseWeekNumbering validates a policy name. Empty selects WeekMonday.
func ParseWeekNumbering(s string) (WeekNumbering, error) {
	switch WeekNumbering(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeekMonday:
		return WeekMonday, nil
	case WeekISO:
		return WeekISO, nil
	default:
		return "", fmt.Errorf("unknown week numbering %q (want %q or %q)", s, WeekMonday, WeekISO)
	}
}

// Label returns the YYYY-Www bucket label of t
func (w WeekNumbering) Label(t time.Time) string {
	if w == WeekISO {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return fmt.Sprintf("%04d-W%02d", t.Year(), mondayWeek(t))
}

// mondayWeek is the week of the year with Monday as first day; days before
// the first Monday are week 0.
func mondayWeek(t time.Time) int {
	yday := t.YearDay() - 1
	weekday := (int(t.Weekday()) + 6) % 7
	return (yday + 7 - weekday) / 7
}
