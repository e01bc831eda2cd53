package schedule

import "time"

// DefaultSlotDuration is the fixed appointment length.
const DefaultSlotDuration = 15 * time.Minute

// Slot is a candidate bookable instant. Slots are ephemeral: they are
// recomputed from the template on demand and never persisted directly.
type Slot struct {
	Instant  time.Time     `json:"instant"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"-"`
}

// End returns the instant at which the slot finishes.
func (s Slot) End() time.Time {
	return s.Instant.Add(s.Duration)
}

// Generator expands a calendar day's availability windows into fixed-duration
// candidate slots. Generation is a pure function of date + template, so the
// same inputs always yield the same ordered sequence.
type Generator struct {
	tz       *Normalizer
	template *Template
	duration time.Duration
}

// NewGenerator creates a slot generator. A non-positive duration falls back
// to DefaultSlotDuration.
func NewGenerator(tz *Normalizer, template *Template, duration time.Duration) *Generator {
	if duration <= 0 {
		duration = DefaultSlotDuration
	}
	return &Generator{tz: tz, template: template, duration: duration}
}

// Duration returns the fixed slot length.
func (g *Generator) Duration() time.Duration {
	return g.duration
}

// SlotsForDate walks every window configured for the date's weekday in
// duration-sized steps. A trailing remainder shorter than one slot is
// dropped: a 09:00-10:45 window with 15-minute slots ends at 10:30.
func (g *Generator) SlotsForDate(d Date) []Slot {
	day := g.tz.Weekday(d)
	windows := g.template.WindowsFor(day)
	if len(windows) == 0 {
		return nil
	}

	step := int(g.duration.Minutes())
	var slots []Slot
	for _, w := range windows {
		for cur := w.Start; cur.AddMinutes(step).MinuteOfDay() <= w.End.MinuteOfDay(); cur = cur.AddMinutes(step) {
			instant := g.tz.ToInstant(d, cur)
			slots = append(slots, Slot{
				Instant:  instant,
				Label:    instant.In(g.tz.Location()).Format("Monday, January 2 at 3:04 PM"),
				Duration: g.duration,
			})
		}
	}
	return slots
}
