package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCronExpression_Valid(t *testing.T) {
	cases := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 21 * * *",
		"30 3 * * *",
		"0 0 * * 0",
		"0 9-17 * * 1-5",
		"0,30 * * * *",
		"10-50/10 * * * *",
	}
	for _, expr := range cases {
		ce, err := ParseCronExpression(expr)
		assert.NoError(t, err, expr)
		assert.Equal(t, expr, ce.String())
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	cases := []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"*/0 * * * *",
		"x * * * *",
		"1-x * * * *",
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestCronExpression_Next(t *testing.T) {
	// Wednesday, 2026-03-11
	base := time.Date(2026, 3, 11, 10, 15, 30, 0, time.UTC)

	cases := []struct {
		expr string
		want time.Time
	}{
		{"* * * * *", time.Date(2026, 3, 11, 10, 16, 0, 0, time.UTC)},
		{"*/5 * * * *", time.Date(2026, 3, 11, 10, 20, 0, 0, time.UTC)},
		{"0 21 * * *", time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC)},
		{"30 3 * * *", time.Date(2026, 3, 12, 3, 30, 0, 0, time.UTC)},
		// Next Sunday is March 15th
		{"0 0 * * 0", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"0 0 1 * *", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		ce, err := ParseCronExpression(tc.expr)
		assert.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, ce.Next(base), tc.expr)
	}
}

func TestCronExpression_NextIsStrictlyAfter(t *testing.T) {
	ce, err := ParseCronExpression("0 21 * * *")
	assert.NoError(t, err)

	exactly := time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, exactly.AddDate(0, 0, 1), ce.Next(exactly))
}

func TestCronExpression_ImplementsSchedule(t *testing.T) {
	ce, err := ParseCronExpression("0 0 * * *")
	assert.NoError(t, err)

	var _ Schedule = ce
}
