package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Window is a recurring weekly availability range in local wall-clock time.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Template maps weekdays (0=Sunday..6=Saturday) to the ordered availability
// windows during which slots may be generated. It is an explicit, injectable
// value so tests and admin tooling can substitute hours freely.
type Template struct {
	windows map[time.Weekday][]Window
}

// NewTemplate validates and builds an availability template. Windows within a
// weekday must satisfy start < end and must not overlap; they are stored
// sorted by start time.
func NewTemplate(windows map[time.Weekday][]Window) (*Template, error) {
	normalized := make(map[time.Weekday][]Window, len(windows))
	for day, list := range windows {
		if len(list) == 0 {
			continue
		}
		sorted := make([]Window, len(list))
		copy(sorted, list)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Start.Before(sorted[j].Start)
		})
		for i, w := range sorted {
			if !w.Start.Before(w.End) {
				return nil, fmt.Errorf("schedule: %s window %s-%s: start must precede end", day, w.Start, w.End)
			}
			if i > 0 && sorted[i-1].End.MinuteOfDay() > w.Start.MinuteOfDay() {
				return nil, fmt.Errorf("schedule: %s windows overlap at %s", day, w.Start)
			}
		}
		normalized[day] = sorted
	}
	return &Template{windows: normalized}, nil
}

// MustTemplate builds a template and panics on invalid input. For the
// hand-configured default hours.
func MustTemplate(windows map[time.Weekday][]Window) *Template {
	t, err := NewTemplate(windows)
	if err != nil {
		panic(err)
	}
	return t
}

// WindowsFor returns the windows configured for a weekday, in order.
func (t *Template) WindowsFor(day time.Weekday) []Window {
	return t.windows[day]
}

// HasWindows reports whether the weekday has any availability at all.
func (t *Template) HasWindows(day time.Weekday) bool {
	return len(t.windows[day]) > 0
}

// Contains reports whether a wall-clock range [start, start+duration) fits
// entirely inside one of the weekday's windows.
func (t *Template) Contains(day time.Weekday, start TimeOfDay, duration time.Duration) bool {
	end := start.AddMinutes(int(duration.Minutes()))
	for _, w := range t.windows[day] {
		if w.Start.MinuteOfDay() <= start.MinuteOfDay() && end.MinuteOfDay() <= w.End.MinuteOfDay() {
			return true
		}
	}
	return false
}

// DefaultTemplate returns the practice's standing weekly hours: weekday
// evenings, with morning blocks on Thursday and Friday.
func DefaultTemplate() *Template {
	return MustTemplate(map[time.Weekday][]Window{
		time.Monday: {
			{Start: MustTimeOfDay("16:00"), End: MustTimeOfDay("20:00")},
		},
		time.Tuesday: {
			{Start: MustTimeOfDay("16:00"), End: MustTimeOfDay("20:00")},
		},
		time.Wednesday: {
			{Start: MustTimeOfDay("16:00"), End: MustTimeOfDay("20:00")},
		},
		time.Thursday: {
			{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("12:00")},
			{Start: MustTimeOfDay("16:00"), End: MustTimeOfDay("20:00")},
		},
		time.Friday: {
			{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("12:00")},
			{Start: MustTimeOfDay("14:00"), End: MustTimeOfDay("17:00")},
		},
	})
}
