package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	// Unknown input falls back to info
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestDomainFieldHelpers_Keys(t *testing.T) {
	// Dashboards and alerting filter on these keys, so they are part
	// of the logging contract.
	cases := []struct {
		field Field
		key   string
		value any
	}{
		{ProfileID("p-1"), "profile_id", "p-1"},
		{LessonID("l-1"), "lesson_id", "l-1"},
		{MissionID("m-1"), "mission_id", "m-1"},
		{Email("a@b.c"), "email", "a@b.c"},
		{CoinsAmount(50), "coins_amount", 50},
		{XPAmount(25), "xp_amount", 25},
		{Component("scheduler"), "component", "scheduler"},
		{Latency(150 * time.Millisecond), "latency", "150ms"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.field.Key)
		assert.Equal(t, tc.value, tc.field.Value)
	}
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
	assert.Nil(t, Err(nil).Value)
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, AddCaller: false})

	log.With(ProfileID("p-1")).Info("profile registered", XPAmount(10))

	var entry LogEntry
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "profile registered", entry.Message)
	assert.Equal(t, "p-1", entry.Fields["profile_id"])
	assert.Equal(t, float64(10), entry.Fields["xp_amount"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn, AddCaller: false})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}
