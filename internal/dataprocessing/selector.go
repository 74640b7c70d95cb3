package dataprocessing

import (
	"fmt"
	"time"
)

// DateLayoutISO is the layout used for dates in APIs and labels.
const DateLayoutISO = "2006-01-02"

// DateSelector picks the records of a single day, an inclusive range of days, or all days.
type DateSelector struct {
	from time.Time
	to   time.Time
	all  bool
}

// OnDay selects the records of one calendar day.
func OnDay(day time.Time) DateSelector {
	d := CivilDate(day)
	return DateSelector{from: d, to: d}
}

// Between selects an inclusive range of calendar days; reversed bounds are swapped.
func Between(from, to time.Time) DateSelector {
	f, t := CivilDate(from), CivilDate(to)
	if t.Before(f) {
		f, t = t, f
	}
	return DateSelector{from: f, to: t}
}

// AllDates selects every record of the batch.
func AllDates() DateSelector {
	return DateSelector{all: true}
}

// Contains reports whether the calendar day of t is selected.
func (s DateSelector) Contains(t time.Time) bool {
	if s.all {
		return true
	}
	d := CivilDate(t)
	return !d.Before(s.from) && !d.After(s.to)
}

// Bounds returns the selected range; ok is false for AllDates.
func (s DateSelector) Bounds() (from, to time.Time, ok bool) {
	return s.from, s.to, !s.all
}

func (s DateSelector) String() string {
	switch {
	case s.all:
		return "all dates"
	case s.from.Equal(s.to):
		return s.from.Format(DateLayoutISO)
	default:
		return fmt.Sprintf("%s..%s", s.from.Format(DateLayoutISO), s.to.Format(DateLayoutISO))
	}
}

// CivilDate drops the time of day, keeping the calendar date of t in its own location, as UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
