package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron expression
// (minute hour day-of-month month day-of-week) that implements
// Schedule, so jobs can be registered with expressions like
// "0 21 * * *" straight from configuration.
//
// Supported field syntax: "*", "n", "n-m", "n,m,o" and steps "*/s",
// "n-m/s".
type CronExpression struct {
	raw      string
	minutes  fieldSet // 0-59
	hours    fieldSet // 0-23
	days     fieldSet // 1-31
	months   fieldSet // 1-12
	weekdays fieldSet // 0-6, 0 = Sunday
}

// ParseCronExpression parses a cron expression string.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	specs := []struct {
		name     string
		min, max int
		dest     *fieldSet
	}{
		{"minute", 0, 59, nil},
		{"hour", 0, 23, nil},
		{"day", 1, 31, nil},
		{"month", 1, 12, nil},
		{"weekday", 0, 6, nil},
	}

	ce := &CronExpression{raw: expr}
	specs[0].dest = &ce.minutes
	specs[1].dest = &ce.hours
	specs[2].dest = &ce.days
	specs[3].dest = &ce.months
	specs[4].dest = &ce.weekdays

	for i, spec := range specs {
		set, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dest = set
	}

	return ce, nil
}

// String returns the original expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first time strictly after the given one that
// matches the expression. Scans minute by minute, which is cheap at
// the frequencies the worker uses.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	// A year of minutes bounds the scan for any valid expression.
	const maxIterations = 366 * 24 * 60
	for i := 0; i < maxIterations; i++ {
		if ce.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}

	return time.Time{}
}

func (ce *CronExpression) matches(t time.Time) bool {
	return ce.minutes.contains(t.Minute()) &&
		ce.hours.contains(t.Hour()) &&
		ce.days.contains(t.Day()) &&
		ce.months.contains(int(t.Month())) &&
		ce.weekdays.contains(int(t.Weekday()))
}

// fieldSet is the sorted set of values a single cron field matches.
type fieldSet []int

func (s fieldSet) contains(v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

// parseCronField expands one cron field into the set of matching
// values within [min, max]. Out-of-range values in lists and ranges
// are dropped rather than rejected.
func parseCronField(field string, min, max int) (fieldSet, error) {
	if field == "*" {
		return rangeSet(min, max, 1), nil
	}

	if base, stepStr, ok := strings.Cut(field, "/"); ok {
		step, err := strconv.Atoi(stepStr)
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step value: %s", stepStr)
		}

		start, end := min, max
		switch {
		case base == "*":
		case strings.Contains(base, "-"):
			var rErr error
			start, end, rErr = parseRange(base)
			if rErr != nil {
				return nil, rErr
			}
		default:
			start, err = strconv.Atoi(base)
			if err != nil {
				return nil, fmt.Errorf("invalid step base: %s", base)
			}
		}

		return clampSet(rangeSet(start, end, step), min, max), nil
	}

	if strings.Contains(field, "-") {
		start, end, err := parseRange(field)
		if err != nil {
			return nil, err
		}
		return clampSet(rangeSet(start, end, 1), min, max), nil
	}

	if strings.Contains(field, ",") {
		var set fieldSet
		for _, part := range strings.Split(field, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid list value: %s", part)
			}
			if v >= min && v <= max {
				set = append(set, v)
			}
		}
		sort.Ints(set)
		return set, nil
	}

	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %s", field)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
	}
	return fieldSet{v}, nil
}

func parseRange(s string) (int, int, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range format: %s", s)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start: %s", startStr)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end: %s", endStr)
	}
	return start, end, nil
}

func rangeSet(start, end, step int) fieldSet {
	var set fieldSet
	for i := start; i <= end; i += step {
		set = append(set, i)
	}
	return set
}

func clampSet(set fieldSet, min, max int) fieldSet {
	out := set[:0]
	for _, v := range set {
		if v >= min && v <= max {
			out = append(out, v)
		}
	}
	return out
}
