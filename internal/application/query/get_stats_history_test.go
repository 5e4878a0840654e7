package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
)

func TestGetStatsHistory_AggregatesTotals(t *testing.T) {
	history := []*progression.DailyStats{
		{
			ProfileID:        testProfileID,
			Day:              time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
			CoinsEarned:      50,
			XPEarned:         25,
			LessonsCompleted: 1,
			MissionsClaimed:  2,
			StreakAtEnd:      3,
		},
		{
			ProfileID:        testProfileID,
			Day:              time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			CoinsEarned:      80,
			XPEarned:         40,
			LessonsCompleted: 2,
			MissionsClaimed:  1,
			StreakAtEnd:      4,
		},
	}
	handler := NewGetStatsHistoryHandler(&stubProgressionRepo{statsHistory: history})

	result, err := handler.Handle(context.Background(), GetStatsHistoryQuery{
		ProfileID: testProfileID,
		Days:      7,
	})
	assert.NoError(t, err)

	assert.Len(t, result.History, 2)
	assert.Equal(t, "2026-03-08", result.History[0].Day)
	assert.Equal(t, "2026-03-09", result.History[1].Day)

	assert.Equal(t, 130, result.TotalCoinsEarned)
	assert.Equal(t, 65, result.TotalXPEarned)
	assert.Equal(t, 3, result.TotalLessonsCompleted)
	assert.Equal(t, 2, result.ActiveDays)
	assert.Equal(t, 7, result.Days)
}

func TestGetStatsHistory_NormalizesDepth(t *testing.T) {
	handler := NewGetStatsHistoryHandler(&stubProgressionRepo{})

	result, err := handler.Handle(context.Background(), GetStatsHistoryQuery{ProfileID: testProfileID})
	assert.NoError(t, err)
	assert.Equal(t, 30, result.Days)

	result, err = handler.Handle(context.Background(), GetStatsHistoryQuery{ProfileID: testProfileID, Days: 1000})
	assert.NoError(t, err)
	assert.Equal(t, 365, result.Days)
}

func TestGetStatsHistory_RequiresProfileID(t *testing.T) {
	handler := NewGetStatsHistoryHandler(&stubProgressionRepo{})

	_, err := handler.Handle(context.Background(), GetStatsHistoryQuery{})
	assert.Error(t, err)
}
