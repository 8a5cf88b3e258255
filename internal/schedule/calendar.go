package schedule

import (
	"sort"

	"github.com/lible-app/lible-api/internal/models"
)

// HolidayCalendar answers date-in-holiday queries over a fixed set of
// closed intervals. Built once per resolution; lookups are O(log n)
// even with overlapping intervals thanks to a running maximum of
// interval ends.
type HolidayCalendar struct {
	starts []models.Date
	maxEnd []models.Date
}

// NewHolidayCalendar sorts the intervals by start date and precomputes
// the prefix maximum of end dates. Overlapping intervals are treated
// as a union.
func NewHolidayCalendar(holidays []models.Holiday) *HolidayCalendar {
	sorted := make([]models.Holiday, len(holidays))
	copy(sorted, holidays)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})

	cal := &HolidayCalendar{
		starts: make([]models.Date, len(sorted)),
		maxEnd: make([]models.Date, len(sorted)),
	}
	for i, h := range sorted {
		cal.starts[i] = h.ValidFrom
		end := h.ValidUntil
		if i > 0 && cal.maxEnd[i-1].After(end) {
			end = cal.maxEnd[i-1]
		}
		cal.maxEnd[i] = end
	}
	return cal
}

// Contains reports whether the date falls inside any holiday interval
// (closed on both ends).
func (c *HolidayCalendar) Contains(date models.Date) bool {
	// Index of the first interval starting strictly after date.
	idx := sort.Search(len(c.starts), func(i int) bool {
		return c.starts[i].After(date)
	})
	if idx == 0 {
		return false
	}
	// Every interval before idx starts on or before date; the prefix
	// maximum tells us whether any of them still covers it.
	return !c.maxEnd[idx-1].Before(date)
}

// Len returns the number of indexed intervals.
func (c *HolidayCalendar) Len() int {
	return len(c.starts)
}
