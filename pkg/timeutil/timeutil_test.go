package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 local time is still March 9 in UTC
	local := time.Date(2026, 3, 10, 2, 30, 0, 0, loc)

	got := StartOfDay(local)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestDayKey_RoundTrip(t *testing.T) {
	moment := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	key := DayKey(moment)
	assert.Equal(t, "2026-03-10", key)

	parsed, err := ParseDayKey(key)
	assert.NoError(t, err)
	assert.Equal(t, StartOfDay(moment), parsed)
}

func TestIsConsecutiveDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.True(t, IsConsecutiveDay(day, day.AddDate(0, 0, 1)))
	assert.False(t, IsConsecutiveDay(day, day))
	assert.False(t, IsConsecutiveDay(day, day.AddDate(0, 0, 2)))

	// Month boundary
	endOfMonth := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.True(t, IsConsecutiveDay(endOfMonth, time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 9, DaysBetween(a, b))
	assert.Equal(t, 9, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestUntilEndOfDay(t *testing.T) {
	moment := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 2*time.Hour, UntilEndOfDay(moment))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "2h 30m", FormatCountdown(2*time.Hour+30*time.Minute))
	assert.Equal(t, "0h 0m", FormatCountdown(-time.Minute))
}
