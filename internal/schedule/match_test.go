package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lible-app/lible-api/internal/models"
)

const monFri = 0b0011111

func datePtr(d models.Date) *models.Date {
	return &d
}

func TestMatchTimetablesWindowAndWeekday(t *testing.T) {
	tt := models.Timetable{
		ID:        "tt-1",
		Name:      "Põhiplaan",
		ValidFrom: models.NewDate(2024, time.January, 1),
		Weekdays:  monFri,
	}

	// Wednesday inside the open-ended window.
	matched, err := MatchTimetables(models.NewDate(2024, time.March, 13), []models.Timetable{tt})
	require.NoError(t, err)
	require.Len(t, matched, 1)

	// Saturday: weekday bit not set.
	matched, err = MatchTimetables(models.NewDate(2024, time.March, 16), []models.Timetable{tt})
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Before the window opens.
	matched, err = MatchTimetables(models.NewDate(2023, time.December, 29), []models.Timetable{tt})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchTimetablesInclusiveValidUntil(t *testing.T) {
	tt := models.Timetable{
		ID:         "tt-1",
		Name:       "Kevad",
		ValidFrom:  models.NewDate(2024, time.March, 1),
		ValidUntil: datePtr(models.NewDate(2024, time.March, 29)),
		Weekdays:   monFri,
	}

	// The last day of the window still matches (Friday).
	matched, err := MatchTimetables(models.NewDate(2024, time.March, 29), []models.Timetable{tt})
	require.NoError(t, err)
	require.Len(t, matched, 1)

	// The Monday after does not.
	matched, err = MatchTimetables(models.NewDate(2024, time.April, 1), []models.Timetable{tt})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchTimetablesOrderedByValidFromDescending(t *testing.T) {
	older := models.Timetable{
		ID:        "tt-a",
		Name:      "Aastaplaan",
		ValidFrom: models.NewDate(2024, time.January, 1),
		Weekdays:  monFri,
	}
	newer := models.Timetable{
		ID:         "tt-b",
		Name:       "Märtsiplaan",
		ValidFrom:  models.NewDate(2024, time.March, 1),
		ValidUntil: datePtr(models.NewDate(2024, time.March, 31)),
		Weekdays:   monFri,
	}

	matched, err := MatchTimetables(models.NewDate(2024, time.March, 13), []models.Timetable{older, newer})
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "tt-b", matched[0].ID)
	assert.Equal(t, "tt-a", matched[1].ID)
}

func TestMatchTimetablesZeroMatchesIsNotAnError(t *testing.T) {
	matched, err := MatchTimetables(models.NewDate(2024, time.March, 13), nil)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchTimetablesInvalidMaskIsPreconditionViolation(t *testing.T) {
	tt := models.Timetable{
		ID:        "tt-1",
		Name:      "Katkine",
		ValidFrom: models.NewDate(2024, time.January, 1),
		Weekdays:  0,
	}

	_, err := MatchTimetables(models.NewDate(2024, time.March, 13), []models.Timetable{tt})
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestMatchTimetablesInvertedWindowIsPreconditionViolation(t *testing.T) {
	tt := models.Timetable{
		ID:         "tt-1",
		Name:       "Tagurpidi",
		ValidFrom:  models.NewDate(2024, time.March, 20),
		ValidUntil: datePtr(models.NewDate(2024, time.March, 1)),
		Weekdays:   monFri,
	}

	_, err := MatchTimetables(models.NewDate(2024, time.March, 25), []models.Timetable{tt})
	require.ErrorIs(t, err, ErrPrecondition)
}
