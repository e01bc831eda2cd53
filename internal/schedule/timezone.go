// Package schedule implements the appointment scheduling core: the fixed
// business-timezone normalizer, the weekly availability template, slot
// generation, conflict detection against booked slots, and the eligibility
// policy (lead time, booking horizon, same-day exceptions).
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInstant is returned when an instant cannot be normalized.
var ErrInvalidInstant = errors.New("schedule: invalid instant")

// Date is a calendar date in the business timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeOfDay is a wall-clock time in the business timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("schedule: parse time of day %q: %w", s, err)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("schedule: time of day %q out of range", s)
	}
	return tod, nil
}

// MustTimeOfDay parses "HH:MM" and panics on failure. For hand-written templates.
func MustTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns minutes since local midnight.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.MinuteOfDay() < other.MinuteOfDay()
}

// AddMinutes returns the wall-clock time m minutes later. It does not wrap
// past midnight; callers validate windows stay within one day.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	total := t.MinuteOfDay() + m
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("schedule: parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Normalizer converts between absolute instants and wall-clock time in the
// practice's fixed business timezone. All other scheduling components consume
// instants and pre-converted labels; none of them do their own offset math.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the named IANA timezone (e.g. "America/New_York").
func NewNormalizer(name string) (*Normalizer, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("schedule: load timezone %q: %w", name, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Location exposes the business timezone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// ToLocal converts an absolute instant into the local calendar date and
// wall-clock time. Fails with ErrInvalidInstant rather than clamping.
func (n *Normalizer) ToLocal(instant time.Time) (Date, TimeOfDay, error) {
	if instant.IsZero() {
		return Date{}, TimeOfDay{}, ErrInvalidInstant
	}
	local := instant.In(n.loc)
	d := Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
	tod := TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
	return d, tod, nil
}

// ToInstant converts a local date + wall-clock time into an absolute instant.
// DST transitions follow time.Date semantics for the business region.
func (n *Normalizer) ToInstant(d Date, t TimeOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, n.loc)
}

// Today returns the local calendar date containing now.
func (n *Normalizer) Today(now time.Time) Date {
	local := now.In(n.loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// Weekday returns the weekday of a local calendar date.
func (n *Normalizer) Weekday(d Date) time.Weekday {
	return n.DayStart(d).Weekday()
}

// DayStart returns the instant of local midnight starting the date.
func (n *Normalizer) DayStart(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, n.loc)
}

// DayEnd returns the instant of local midnight ending the date.
func (n *Normalizer) DayEnd(d Date) time.Time {
	return n.DayStart(d).AddDate(0, 0, 1)
}

// NextDate returns the calendar date following d.
func (n *Normalizer) NextDate(d Date) Date {
	next := n.DayStart(d).AddDate(0, 0, 1)
	return Date{Year: next.Year(), Month: next.Month(), Day: next.Day()}
}
