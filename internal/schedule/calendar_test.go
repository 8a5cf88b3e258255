package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lible-app/lible-api/internal/models"
)

func holiday(from, until models.Date) models.Holiday {
	return models.Holiday{ValidFrom: from, ValidUntil: until}
}

func TestHolidayCalendarClosedBounds(t *testing.T) {
	cal := NewHolidayCalendar([]models.Holiday{
		holiday(models.NewDate(2024, time.March, 11), models.NewDate(2024, time.March, 15)),
	})

	assert.False(t, cal.Contains(models.NewDate(2024, time.March, 10)))
	assert.True(t, cal.Contains(models.NewDate(2024, time.March, 11)))
	assert.True(t, cal.Contains(models.NewDate(2024, time.March, 13)))
	assert.True(t, cal.Contains(models.NewDate(2024, time.March, 15)))
	assert.False(t, cal.Contains(models.NewDate(2024, time.March, 16)))
}

func TestHolidayCalendarEmpty(t *testing.T) {
	cal := NewHolidayCalendar(nil)
	assert.False(t, cal.Contains(models.NewDate(2024, time.January, 1)))
	assert.Equal(t, 0, cal.Len())
}

func TestHolidayCalendarOverlappingIntervalsUnion(t *testing.T) {
	// A long interval followed by shorter ones starting later; the
	// prefix maximum must keep the long interval visible.
	cal := NewHolidayCalendar([]models.Holiday{
		holiday(models.NewDate(2024, time.June, 1), models.NewDate(2024, time.August, 31)),
		holiday(models.NewDate(2024, time.June, 20), models.NewDate(2024, time.June, 24)),
		holiday(models.NewDate(2024, time.July, 1), models.NewDate(2024, time.July, 2)),
	})

	assert.True(t, cal.Contains(models.NewDate(2024, time.July, 15)))
	assert.True(t, cal.Contains(models.NewDate(2024, time.August, 31)))
	assert.False(t, cal.Contains(models.NewDate(2024, time.September, 1)))
}

func TestHolidayCalendarUnsortedInput(t *testing.T) {
	cal := NewHolidayCalendar([]models.Holiday{
		holiday(models.NewDate(2024, time.December, 23), models.NewDate(2025, time.January, 5)),
		holiday(models.NewDate(2024, time.February, 19), models.NewDate(2024, time.February, 25)),
		holiday(models.NewDate(2024, time.October, 21), models.NewDate(2024, time.October, 27)),
	})

	assert.True(t, cal.Contains(models.NewDate(2024, time.February, 21)))
	assert.True(t, cal.Contains(models.NewDate(2024, time.October, 27)))
	assert.True(t, cal.Contains(models.NewDate(2025, time.January, 1)))
	assert.False(t, cal.Contains(models.NewDate(2024, time.May, 1)))
}
