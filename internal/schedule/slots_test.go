package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioTemplate() *Template {
	return MustTemplate(map[time.Weekday][]Window{
		time.Monday: {{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("10:45")}},
	})
}

func TestSlotsForDateWalksWindowAndDropsPartialTail(t *testing.T) {
	tz := newTestNormalizer(t)
	gen := NewGenerator(tz, scenarioTemplate(), 15*time.Minute)

	monday := Date{2026, time.January, 5}
	slots := gen.SlotsForDate(monday)

	// 09:00 through 10:30 inclusive; the 10:45 tail would run past the window.
	require.Len(t, slots, 7)
	first := slots[0].Instant.In(tz.Location())
	last := slots[len(slots)-1].Instant.In(tz.Location())
	assert.Equal(t, "09:00", first.Format("15:04"))
	assert.Equal(t, "10:30", last.Format("15:04"))

	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 15*time.Minute, slots[i].Instant.Sub(slots[i-1].Instant))
	}
}

func TestSlotsForDateDeterministic(t *testing.T) {
	tz := newTestNormalizer(t)
	gen := NewGenerator(tz, DefaultTemplate(), 15*time.Minute)

	thursday := Date{2026, time.January, 8}
	a := gen.SlotsForDate(thursday)
	b := gen.SlotsForDate(thursday)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Instant.Equal(b[i].Instant))
		assert.Equal(t, a[i].Label, b[i].Label)
	}
}

func TestSlotsForDateEmptyWeekday(t *testing.T) {
	tz := newTestNormalizer(t)
	gen := NewGenerator(tz, DefaultTemplate(), 15*time.Minute)

	saturday := Date{2026, time.January, 10}
	assert.Empty(t, gen.SlotsForDate(saturday))
}

func TestSlotsStayInsideConfiguredWindows(t *testing.T) {
	tz := newTestNormalizer(t)
	tmpl := DefaultTemplate()
	gen := NewGenerator(tz, tmpl, 15*time.Minute)

	thursday := Date{2026, time.January, 8}
	for _, slot := range gen.SlotsForDate(thursday) {
		_, tod, err := tz.ToLocal(slot.Instant)
		require.NoError(t, err)
		assert.True(t, tmpl.Contains(time.Thursday, tod, slot.Duration),
			"slot %s escapes the availability windows", tod)
	}
}

func TestSlotLabelUsesLocalWallClock(t *testing.T) {
	tz := newTestNormalizer(t)
	gen := NewGenerator(tz, scenarioTemplate(), 15*time.Minute)

	slots := gen.SlotsForDate(Date{2026, time.January, 5})
	require.NotEmpty(t, slots)
	assert.Equal(t, "Monday, January 5 at 9:00 AM", slots[0].Label)
}

func TestSlotEnd(t *testing.T) {
	start := time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC)
	slot := Slot{Instant: start, Duration: 15 * time.Minute}
	assert.True(t, slot.End().Equal(start.Add(15*time.Minute)))
}
