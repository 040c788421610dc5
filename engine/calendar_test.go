package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andino/letras-engine/engine"
)

func TestCalendar_Weekdays(t *testing.T) {
	cal := testCalendar(t)

	assert.True(t, cal.IsBusinessDay(engine.NewDate(2025, time.June, 2)), "Monday")
	assert.True(t, cal.IsBusinessDay(engine.NewDate(2025, time.June, 6)), "Friday")
	assert.False(t, cal.IsBusinessDay(engine.NewDate(2025, time.June, 7)), "Saturday")
	assert.False(t, cal.IsBusinessDay(engine.NewDate(2025, time.June, 8)), "Sunday")
}

func TestCalendar_Holidays(t *testing.T) {
	cal := testCalendar(t)

	// Weekday holidays are not business days.
	assert.True(t, cal.IsHoliday(engine.NewDate(2025, time.July, 28)))
	assert.False(t, cal.IsBusinessDay(engine.NewDate(2025, time.July, 28)))
	assert.False(t, cal.IsBusinessDay(engine.NewDate(2025, time.May, 1)))

	// The day after a holiday is ordinary again.
	assert.True(t, cal.IsBusinessDay(engine.NewDate(2025, time.July, 30)))
}

func TestCalendar_TimeOfDayIgnored(t *testing.T) {
	// Queries are day-granular: any timestamp inside a holiday matches.
	cal := testCalendar(t)

	noon := time.Date(2025, time.July, 28, 12, 30, 0, 0, time.UTC)
	assert.True(t, cal.IsHoliday(noon))
	assert.False(t, cal.IsBusinessDay(noon))
}

func TestCalendar_HolidaysSorted(t *testing.T) {
	cal, err := engine.NewCalendarFromStrings([]string{"2025-12-25", "2025-01-01", "2025-05-01"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01-01", "2025-05-01", "2025-12-25"}, cal.Holidays())
}

func TestCalendar_InvalidDateString(t *testing.T) {
	_, err := engine.NewCalendarFromStrings([]string{"28/07/2025"})
	assert.Error(t, err)
}

func TestCalendar_DefaultSet(t *testing.T) {
	defaults := engine.DefaultHolidays()
	assert.Len(t, defaults, 12)

	cal, err := engine.NewCalendarFromStrings(defaults)
	require.NoError(t, err)
	for _, d := range defaults {
		parsed, perr := time.ParseInLocation("2006-01-02", d, time.UTC)
		require.NoError(t, perr)
		assert.True(t, cal.IsHoliday(parsed), d)
	}
}
