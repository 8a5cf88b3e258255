package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Weekday bitmask layout: Monday = bit 0 .. Sunday = bit 6. A valid
// mask is in 1..127; zero would mean "never applies" and is rejected
// at construction instead of silently matching nothing.
const maskMax = 127

var (
	// ErrInvalidWeekdayMask rejects masks outside 1..127.
	ErrInvalidWeekdayMask = errors.New("weekday mask must be between 1 and 127")
	// ErrOffsetOutOfRange rejects template offsets outside [-120, 120].
	ErrOffsetOutOfRange = errors.New("template offset must be between -120 and 120 minutes")
	// ErrTemplateOutOfRange rejects expansions that leave the anchor's calendar day.
	ErrTemplateOutOfRange = errors.New("template expansion leaves the anchor's calendar day")
	// ErrPrecondition reports an entity that violates an invariant the
	// resolver assumed was validated at the write boundary.
	ErrPrecondition = errors.New("precondition violated")
)

// weekdayBit maps time.Weekday (Sunday=0) onto the Monday-first bit layout.
func weekdayBit(day time.Weekday) int {
	return (int(day) + 6) % 7
}

// MaskMatches reports whether the mask covers the given weekday.
func MaskMatches(mask int, day time.Weekday) (bool, error) {
	if mask < 1 || mask > maskMax {
		return false, fmt.Errorf("%w: got %d", ErrInvalidWeekdayMask, mask)
	}
	return mask&(1<<weekdayBit(day)) != 0, nil
}

// EncodeWeekdays builds a mask from a set of weekdays. An empty set
// encodes to mask 0, which is invalid by contract.
func EncodeWeekdays(days []time.Weekday) (int, error) {
	mask := 0
	for _, day := range days {
		mask |= 1 << weekdayBit(day)
	}
	if mask < 1 || mask > maskMax {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWeekdayMask, mask)
	}
	return mask, nil
}

// DecodeWeekdays expands a mask into weekdays ordered Monday..Sunday.
// It is the inverse of EncodeWeekdays over the 7-bit domain.
func DecodeWeekdays(mask int) ([]time.Weekday, error) {
	if mask < 1 || mask > maskMax {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWeekdayMask, mask)
	}
	mondayFirst := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	days := make([]time.Weekday, 0, 7)
	for bit, day := range mondayFirst {
		if mask&(1<<bit) != 0 {
			days = append(days, day)
		}
	}
	return days, nil
}

// ValidMask reports whether the mask is within the accepted domain.
func ValidMask(mask int) bool {
	return mask >= 1 && mask <= maskMax
}
