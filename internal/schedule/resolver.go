package schedule

import (
	"fmt"
	"sort"

	"github.com/lible-app/lible-api/internal/models"
)

// Snapshot is the immutable, fully-loaded entity set a single
// resolution works on. The storage layer produces one per call; the
// resolver never reaches back for more data.
type Snapshot struct {
	Timetables []models.Timetable
	Holidays   []models.Holiday
	Sounds     map[string]models.Sound
}

// Firing is one instruction of the day's plan: ring this sound at
// this time.
type Firing struct {
	Time          models.TimeOfDay `json:"time"`
	EventName     string           `json:"event_name"`
	SoundID       string           `json:"sound_id"`
	SoundFilename string           `json:"sound_filename,omitempty"`
	TimetableID   string           `json:"timetable_id"`
	TimetableName string           `json:"timetable_name"`
}

// Plan is the resolved firing sequence for one date.
type Plan struct {
	Date     models.Date `json:"date"`
	Holiday  bool        `json:"holiday"`
	Firings  []Firing    `json:"firings"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Resolve computes the ordered, conflict-resolved firing plan for one
// date from a snapshot of a single owner's timetables.
//
// Holidays suppress the whole day. Among matched timetables, events at
// the same minute across different timetables are won by the timetable
// with the later valid_from (the MatchTimetables ordering); losing
// events are dropped. Same-minute events within one timetable all
// fire. A firing whose sound no longer exists is kept with an empty
// filename and reported as a warning rather than silencing the day.
func Resolve(snap Snapshot, date models.Date) (*Plan, error) {
	plan := &Plan{Date: date, Firings: []Firing{}}

	if NewHolidayCalendar(snap.Holidays).Contains(date) {
		plan.Holiday = true
		return plan, nil
	}

	matched, err := MatchTimetables(date, snap.Timetables)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return plan, nil
	}

	// First claim wins a minute; iteration follows the priority order
	// from MatchTimetables, so later-starting timetables claim first.
	claimed := make(map[models.TimeOfDay]string)
	for _, tt := range matched {
		for _, ev := range tt.Events {
			if !ev.EventTime.Valid() {
				return nil, fmt.Errorf("%w: timetable %q event %q has time %d", ErrPrecondition, tt.Name, ev.EventName, int(ev.EventTime))
			}
			if owner, taken := claimed[ev.EventTime]; taken && owner != tt.ID {
				continue
			}
			claimed[ev.EventTime] = tt.ID
			plan.Firings = append(plan.Firings, Firing{
				Time:          ev.EventTime,
				EventName:     ev.EventName,
				SoundID:       ev.SoundID,
				TimetableID:   tt.ID,
				TimetableName: tt.Name,
			})
		}
	}

	sort.SliceStable(plan.Firings, func(i, j int) bool {
		return plan.Firings[i].Time < plan.Firings[j].Time
	})

	for i := range plan.Firings {
		sound, ok := snap.Sounds[plan.Firings[i].SoundID]
		if !ok {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("sound %s referenced by event %q at %s was not found",
					plan.Firings[i].SoundID, plan.Firings[i].EventName, plan.Firings[i].Time))
			continue
		}
		plan.Firings[i].SoundFilename = sound.Filename
	}

	return plan, nil
}
