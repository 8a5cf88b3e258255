package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lible-app/lible-api/internal/models"
)

func event(timetableID, name, at, soundID string) models.TimetableEvent {
	parsed, _ := models.ParseTimeOfDay(at)
	return models.TimetableEvent{
		TimetableID: timetableID,
		EventName:   name,
		EventTime:   parsed,
		SoundID:     soundID,
	}
}

// Timetable A: open-ended Mon-Fri plan from 2024-01-01, 08:00 -> SoundX.
// Timetable B: Mon-Fri plan for March 2024 only, 08:00 -> SoundY.
func overlappingSnapshot() Snapshot {
	a := models.Timetable{
		ID:        "tt-a",
		Name:      "Aastaplaan",
		ValidFrom: models.NewDate(2024, time.January, 1),
		Weekdays:  monFri,
	}
	a.Events = []models.TimetableEvent{event("tt-a", "Alghelin", "08:00", "sound-x")}

	until := models.NewDate(2024, time.March, 31)
	b := models.Timetable{
		ID:         "tt-b",
		Name:       "Märtsiplaan",
		ValidFrom:  models.NewDate(2024, time.March, 1),
		ValidUntil: &until,
		Weekdays:   monFri,
	}
	b.Events = []models.TimetableEvent{event("tt-b", "Alghelin", "08:00", "sound-y")}

	return Snapshot{
		Timetables: []models.Timetable{a, b},
		Sounds: map[string]models.Sound{
			"sound-x": {ID: "sound-x", Name: "SoundX", Filename: "x.mp3"},
			"sound-y": {ID: "sound-y", Name: "SoundY", Filename: "y.mp3"},
		},
	}
}

func TestResolveLaterValidFromWinsSameMinute(t *testing.T) {
	plan, err := Resolve(overlappingSnapshot(), models.NewDate(2024, time.March, 13))
	require.NoError(t, err)

	require.Len(t, plan.Firings, 1)
	assert.Equal(t, "08:00", plan.Firings[0].Time.String())
	assert.Equal(t, "sound-y", plan.Firings[0].SoundID)
	assert.Equal(t, "y.mp3", plan.Firings[0].SoundFilename)
	assert.Equal(t, "tt-b", plan.Firings[0].TimetableID)
}

func TestResolveHolidaySuppressesEverything(t *testing.T) {
	snap := overlappingSnapshot()
	snap.Holidays = []models.Holiday{
		{Name: "Vaheaeg", ValidFrom: models.NewDate(2024, time.March, 11), ValidUntil: models.NewDate(2024, time.March, 15)},
	}

	plan, err := Resolve(snap, models.NewDate(2024, time.March, 13))
	require.NoError(t, err)
	assert.True(t, plan.Holiday)
	assert.Empty(t, plan.Firings)
}

func TestResolveOutsideOverlapFallsBackToStandingPlan(t *testing.T) {
	// April: B's window has closed, A's standing plan fires again.
	plan, err := Resolve(overlappingSnapshot(), models.NewDate(2024, time.April, 3))
	require.NoError(t, err)

	require.Len(t, plan.Firings, 1)
	assert.Equal(t, "tt-a", plan.Firings[0].TimetableID)
	assert.Equal(t, "sound-x", plan.Firings[0].SoundID)
}

func TestResolveNoMatchesYieldsEmptyPlan(t *testing.T) {
	// Sunday: neither timetable covers it.
	plan, err := Resolve(overlappingSnapshot(), models.NewDate(2024, time.March, 17))
	require.NoError(t, err)
	assert.False(t, plan.Holiday)
	assert.Empty(t, plan.Firings)
}

func TestResolveMergesAcrossTimetablesTimeAscending(t *testing.T) {
	snap := overlappingSnapshot()
	snap.Timetables[0].Events = append(snap.Timetables[0].Events,
		event("tt-a", "Lõpuhelin", "14:45", "sound-x"),
		event("tt-a", "Eelhelin", "07:50", "sound-x"),
	)

	plan, err := Resolve(snap, models.NewDate(2024, time.March, 13))
	require.NoError(t, err)

	require.Len(t, plan.Firings, 3)
	assert.Equal(t, "07:50", plan.Firings[0].Time.String())
	assert.Equal(t, "08:00", plan.Firings[1].Time.String())
	assert.Equal(t, "tt-b", plan.Firings[1].TimetableID)
	assert.Equal(t, "14:45", plan.Firings[2].Time.String())
}

func TestResolveSameMinuteWithinOneTimetableBothFire(t *testing.T) {
	snap := overlappingSnapshot()
	snap.Timetables[1].Events = append(snap.Timetables[1].Events,
		event("tt-b", "Fanfaar", "08:00", "sound-x"),
	)

	plan, err := Resolve(snap, models.NewDate(2024, time.March, 13))
	require.NoError(t, err)

	require.Len(t, plan.Firings, 2)
	assert.Equal(t, "Alghelin", plan.Firings[0].EventName)
	assert.Equal(t, "Fanfaar", plan.Firings[1].EventName)
	assert.Equal(t, "tt-b", plan.Firings[0].TimetableID)
	assert.Equal(t, "tt-b", plan.Firings[1].TimetableID)
}

func TestResolveMissingSoundIsWarningNotFatal(t *testing.T) {
	snap := overlappingSnapshot()
	delete(snap.Sounds, "sound-y")

	plan, err := Resolve(snap, models.NewDate(2024, time.March, 13))
	require.NoError(t, err)

	require.Len(t, plan.Firings, 1)
	assert.Empty(t, plan.Firings[0].SoundFilename)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "sound-y")
}

func TestResolveDeterministic(t *testing.T) {
	snap := overlappingSnapshot()
	date := models.NewDate(2024, time.March, 13)

	first, err := Resolve(snap, date)
	require.NoError(t, err)
	second, err := Resolve(snap, date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveBrokenMaskSurfacesPrecondition(t *testing.T) {
	snap := overlappingSnapshot()
	snap.Timetables[0].Weekdays = 0

	_, err := Resolve(snap, models.NewDate(2024, time.March, 13))
	require.ErrorIs(t, err, ErrPrecondition)
}
