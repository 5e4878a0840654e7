// Package timeutil provides calendar-day utilities for LuckCash.
// Streaks, daily missions, and stats history are all keyed to UTC days,
// so every "what day is it" question in the codebase goes through here.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD), used as the
	// day key for streaks, daily missions, and stats history.
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the UTC day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// Today returns the start of the current UTC day.
func Today() time.Time {
	return StartOfDay(Now())
}

// Yesterday returns the start of the previous UTC day.
func Yesterday() time.Time {
	return Today().AddDate(0, 0, -1)
}

// DayKey formats a time as its UTC day key (YYYY-MM-DD).
// This is the canonical key for day-scoped records.
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDayKey parses a UTC day key (YYYY-MM-DD) back into a time.
func ParseDayKey(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// IsConsecutiveDay checks if t2 is on the UTC day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	nextDay := StartOfDay(t1).AddDate(0, 0, 1)
	return IsSameDay(nextDay, t2)
}

// IsToday checks if the given time falls on the current UTC day.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time falls on the previous UTC day.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// DaysBetween calculates the number of whole UTC days between two times.
// The result is always non-negative.
func DaysBetween(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// DaysSince calculates the number of whole UTC days since the given time.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// StartOfWeek returns the start of the week (Monday 00:00:00 UTC).
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// StartOfMonth returns the start of the month in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// UntilEndOfDay returns the duration remaining until the current UTC day
// rolls over. Used to show "missions reset in Xh Ym" and to size cache TTLs
// for day-scoped data.
func UntilEndOfDay(t time.Time) time.Duration {
	return StartOfDay(t).AddDate(0, 0, 1).Sub(t.UTC())
}

// FormatCountdown renders a duration as "Xh Ym" for mission reset timers.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, mins)
}
