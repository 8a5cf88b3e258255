package schedule

import (
	"fmt"
	"sort"

	"github.com/lible-app/lible-api/internal/models"
)

// PlannedEvent is one concrete bell produced by expanding a template
// item against an anchor time.
type PlannedEvent struct {
	Time      models.TimeOfDay
	EventName string
	SoundID   string
}

// ExpandTemplate materialises a template at the given anchor time.
// Each item becomes anchor+offset; the output is ordered by time
// ascending with the template's item order preserved for equal
// offsets. Expansion is deterministic: the same template and anchor
// always produce the same sequence.
//
// Offsets that would push an event outside the anchor's calendar day
// fail with ErrTemplateOutOfRange; the whole expansion is rejected,
// never truncated.
func ExpandTemplate(tpl models.EventTemplate, anchor models.TimeOfDay) ([]PlannedEvent, error) {
	if !anchor.Valid() {
		return nil, fmt.Errorf("%w: anchor %d outside day", ErrTemplateOutOfRange, int(anchor))
	}

	events := make([]PlannedEvent, 0, len(tpl.Items))
	for _, item := range tpl.Items {
		if item.OffsetMinutes < -120 || item.OffsetMinutes > 120 {
			return nil, fmt.Errorf("%w: item %q has offset %d", ErrOffsetOutOfRange, item.EventName, item.OffsetMinutes)
		}
		t := anchor + models.TimeOfDay(item.OffsetMinutes)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: template %q item %q resolves to %d minutes from midnight",
				ErrTemplateOutOfRange, tpl.Name, item.EventName, int(t))
		}
		events = append(events, PlannedEvent{
			Time:      t,
			EventName: item.EventName,
			SoundID:   item.SoundID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events, nil
}
