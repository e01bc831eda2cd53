package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTemplateRejectsInvertedWindow(t *testing.T) {
	_, err := NewTemplate(map[time.Weekday][]Window{
		time.Monday: {{Start: MustTimeOfDay("10:00"), End: MustTimeOfDay("09:00")}},
	})
	assert.Error(t, err)
}

func TestNewTemplateRejectsOverlap(t *testing.T) {
	_, err := NewTemplate(map[time.Weekday][]Window{
		time.Monday: {
			{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("12:00")},
			{Start: MustTimeOfDay("11:00"), End: MustTimeOfDay("14:00")},
		},
	})
	assert.Error(t, err)
}

func TestNewTemplateSortsWindows(t *testing.T) {
	tmpl, err := NewTemplate(map[time.Weekday][]Window{
		time.Thursday: {
			{Start: MustTimeOfDay("16:00"), End: MustTimeOfDay("20:00")},
			{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("12:00")},
		},
	})
	assert.NoError(t, err)
	windows := tmpl.WindowsFor(time.Thursday)
	assert.Len(t, windows, 2)
	assert.Equal(t, MustTimeOfDay("09:00"), windows[0].Start)
}

func TestHasWindows(t *testing.T) {
	tmpl := DefaultTemplate()
	assert.True(t, tmpl.HasWindows(time.Monday))
	assert.False(t, tmpl.HasWindows(time.Saturday))
	assert.False(t, tmpl.HasWindows(time.Sunday))
}

func TestContains(t *testing.T) {
	tmpl := MustTemplate(map[time.Weekday][]Window{
		time.Monday: {{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("10:45")}},
	})

	assert.True(t, tmpl.Contains(time.Monday, MustTimeOfDay("09:00"), 15*time.Minute))
	assert.True(t, tmpl.Contains(time.Monday, MustTimeOfDay("10:30"), 15*time.Minute))
	// 10:45 + 15m runs past the window end.
	assert.False(t, tmpl.Contains(time.Monday, MustTimeOfDay("10:45"), 15*time.Minute))
	assert.False(t, tmpl.Contains(time.Monday, MustTimeOfDay("08:45"), 15*time.Minute))
	assert.False(t, tmpl.Contains(time.Tuesday, MustTimeOfDay("09:00"), 15*time.Minute))
}
