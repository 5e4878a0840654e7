package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	mon = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tue = mon.AddDate(0, 0, 1)
	wed = mon.AddDate(0, 0, 2)
	thu = mon.AddDate(0, 0, 3)
	fri = mon.AddDate(0, 0, 4)
)

func TestCalendarDayPolicy_FirstActivity(t *testing.T) {
	policy := CalendarDayPolicy{}

	state := policy.Update(StreakState{}, mon)

	assert.Equal(t, 1, state.Current)
	assert.Equal(t, 1, state.Longest)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), state.LastActivity)
}

func TestCalendarDayPolicy_SameDayIsNoop(t *testing.T) {
	policy := CalendarDayPolicy{}

	state := policy.Update(StreakState{}, mon)
	again := policy.Update(state, mon.Add(8*time.Hour))

	assert.Equal(t, state, again)
}

func TestCalendarDayPolicy_ConsecutiveDaysExtend(t *testing.T) {
	policy := CalendarDayPolicy{}

	state := policy.Update(StreakState{}, mon)
	state = policy.Update(state, tue)
	state = policy.Update(state, wed)

	assert.Equal(t, 3, state.Current)
	assert.Equal(t, 3, state.Longest)
}

func TestCalendarDayPolicy_GapResets(t *testing.T) {
	policy := CalendarDayPolicy{}

	state := policy.Update(StreakState{}, mon)
	state = policy.Update(state, tue)
	// Пропущена среда
	state = policy.Update(state, thu)

	assert.Equal(t, 1, state.Current)
	assert.Equal(t, 2, state.Longest)
}

func TestCalendarDayPolicy_PastActivityIgnored(t *testing.T) {
	policy := CalendarDayPolicy{}

	state := policy.Update(StreakState{}, wed)
	before := state
	state = policy.Update(state, mon)

	assert.Equal(t, before, state)
}

func TestGraceDayPolicy_OneMissedDayForgiven(t *testing.T) {
	policy := GraceDayPolicy{GraceDays: 1}

	state := policy.Update(StreakState{}, mon)
	state = policy.Update(state, tue)
	// Пропущена среда - при допуске в 1 день серия продолжается
	state = policy.Update(state, thu)

	assert.Equal(t, 3, state.Current)
	assert.Equal(t, 3, state.Longest)
}

func TestGraceDayPolicy_TwoMissedDaysReset(t *testing.T) {
	policy := GraceDayPolicy{GraceDays: 1}

	state := policy.Update(StreakState{}, mon)
	state = policy.Update(state, tue)
	// Пропущены среда и четверг
	state = policy.Update(state, fri)

	assert.Equal(t, 1, state.Current)
	assert.Equal(t, 2, state.Longest)
}

func TestStreakState_IsBroken(t *testing.T) {
	policy := CalendarDayPolicy{}
	state := policy.Update(StreakState{}, mon)

	assert.False(t, state.IsBroken(mon.Add(4*time.Hour)))
	assert.False(t, state.IsBroken(tue))
	assert.True(t, state.IsBroken(wed))
}

func TestStreakState_DaysUntilBreak(t *testing.T) {
	policy := CalendarDayPolicy{}
	state := policy.Update(StreakState{}, mon)

	assert.Equal(t, 2, state.DaysUntilBreak(mon.Add(6*time.Hour)))
	assert.Equal(t, 1, state.DaysUntilBreak(tue))
	assert.Equal(t, 0, state.DaysUntilBreak(wed))
	assert.Equal(t, 0, StreakState{}.DaysUntilBreak(mon))
}

func TestPolicyNames(t *testing.T) {
	assert.Equal(t, "calendar_day", CalendarDayPolicy{}.Name())
	assert.Equal(t, "grace_day", GraceDayPolicy{GraceDays: 1}.Name())
}
