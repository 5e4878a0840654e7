package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

type statsCall struct {
	kind  string
	coins int
	xp    int
}

type stubStatsRecorder struct {
	calls []statsCall
}

func (s *stubStatsRecorder) AddLessonCompleted(_ context.Context, _ string, _ time.Time, coins, xp int) error {
	s.calls = append(s.calls, statsCall{"lesson", coins, xp})
	return nil
}

func (s *stubStatsRecorder) AddMissionClaimed(_ context.Context, _ string, _ time.Time, coins, xp int) error {
	s.calls = append(s.calls, statsCall{"mission", coins, xp})
	return nil
}

func (s *stubStatsRecorder) AddReward(_ context.Context, _ string, _ time.Time, coins, xp int) error {
	s.calls = append(s.calls, statsCall{"reward", coins, xp})
	return nil
}

type stubActivityRecorder struct {
	actions []string
}

func (s *stubActivityRecorder) Record(_ context.Context, _, action string) error {
	s.actions = append(s.actions, action)
	return nil
}

func TestOnDailyStats_LessonCompletedCounted(t *testing.T) {
	stats := &stubStatsRecorder{}
	activity := &stubActivityRecorder{}
	handler := NewOnDailyStatsHandler(stats, activity, nil)

	assert.NoError(t, handler.Handle(shared.NewLessonCompletedEvent(testProfileID, "lesson-1", 40, 20)))

	assert.Equal(t, []statsCall{{"lesson", 40, 20}}, stats.calls)
	assert.Equal(t, []string{"lesson_completed"}, activity.actions)
}

func TestOnDailyStats_MissionClaimCounted(t *testing.T) {
	stats := &stubStatsRecorder{}
	handler := NewOnDailyStatsHandler(stats, &stubActivityRecorder{}, nil)

	assert.NoError(t, handler.Handle(shared.NewMissionClaimedEvent(testProfileID, "m-coins", "2026-03-10", 30, 15)))

	assert.Equal(t, []statsCall{{"mission", 30, 15}}, stats.calls)
}

func TestOnDailyStats_PurchaseIsActivityOnly(t *testing.T) {
	stats := &stubStatsRecorder{}
	activity := &stubActivityRecorder{}
	handler := NewOnDailyStatsHandler(stats, activity, nil)

	assert.NoError(t, handler.Handle(shared.NewPurchaseMadeEvent(testProfileID, "item-1", "purchase-1", 150)))

	// Траты не попадают в дневные счётчики
	assert.Empty(t, stats.calls)
	assert.Equal(t, []string{"purchase"}, activity.actions)
}

func TestOnDailyStats_NilDependenciesAreSafe(t *testing.T) {
	handler := NewOnDailyStatsHandler(nil, nil, nil)

	assert.NoError(t, handler.Handle(shared.NewLessonCompletedEvent(testProfileID, "lesson-1", 40, 20)))
}
