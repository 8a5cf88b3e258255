package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskMatchesMondayFirstLayout(t *testing.T) {
	// Mon-Fri mask.
	const weekdays = 0b0011111

	ok, err := MaskMatches(weekdays, time.Monday)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MaskMatches(weekdays, time.Friday)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MaskMatches(weekdays, time.Saturday)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = MaskMatches(weekdays, time.Sunday)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaskMatchesRejectsInvalidMask(t *testing.T) {
	for _, mask := range []int{0, -1, 128, 255} {
		_, err := MaskMatches(mask, time.Monday)
		require.ErrorIs(t, err, ErrInvalidWeekdayMask, "mask %d", mask)
	}
}

func TestEncodeDecodeRoundTripAllMasks(t *testing.T) {
	for mask := 1; mask <= 127; mask++ {
		days, err := DecodeWeekdays(mask)
		require.NoError(t, err, "mask %d", mask)
		require.NotEmpty(t, days)

		encoded, err := EncodeWeekdays(days)
		require.NoError(t, err, "mask %d", mask)
		assert.Equal(t, mask, encoded, "mask %d", mask)
	}
}

func TestEncodeWeekdaysRejectsEmptySet(t *testing.T) {
	_, err := EncodeWeekdays(nil)
	require.ErrorIs(t, err, ErrInvalidWeekdayMask)
}

func TestDecodeWeekdaysOrderedMondayFirst(t *testing.T) {
	days, err := DecodeWeekdays(127)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}, days)
}
