package schedule

import (
	"fmt"
	"sort"

	"github.com/lible-app/lible-api/internal/models"
)

// MatchTimetables returns the timetables whose validity window
// contains the date and whose weekday mask covers the date's weekday,
// ordered by valid_from descending (most-recently-started first).
// That ordering feeds the conflict tie-break during resolution.
//
// Zero matches is a valid outcome, not an error. An invalid mask on
// any candidate is a broken invariant and fails the whole match.
func MatchTimetables(date models.Date, timetables []models.Timetable) ([]models.Timetable, error) {
	matched := make([]models.Timetable, 0, len(timetables))
	for _, tt := range timetables {
		ok, err := MaskMatches(tt.Weekdays, date.Weekday())
		if err != nil {
			return nil, fmt.Errorf("%w: timetable %q: %v", ErrPrecondition, tt.Name, err)
		}
		if !ok {
			continue
		}
		if date.Before(tt.ValidFrom) {
			continue
		}
		if tt.ValidUntil != nil {
			if tt.ValidUntil.Before(tt.ValidFrom) {
				return nil, fmt.Errorf("%w: timetable %q has valid_until before valid_from", ErrPrecondition, tt.Name)
			}
			if date.After(*tt.ValidUntil) {
				continue
			}
		}
		matched = append(matched, tt)
	}

	// valid_from descending; created_at then id keep the ordering total
	// so resolution stays deterministic when windows start together.
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].ValidFrom.Equal(matched[j].ValidFrom.Time) {
			return matched[i].ValidFrom.After(matched[j].ValidFrom)
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}
