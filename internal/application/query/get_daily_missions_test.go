package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
)

func TestGetDailyMissions_MergesProgress(t *testing.T) {
	claimable := newQueryMission(t, "m-lessons", catalog.MissionCompleteLessons, 3, 20, 10)
	untouched := newQueryMission(t, "m-coins", catalog.MissionEarnCoins, 100, 30, 15)

	record := progression.NewMissionProgress(testProfileID, claimable.ID, testNow, testNow)
	assert.NoError(t, record.AddProgress(3, testNow))

	handler := NewGetDailyMissionsHandler(
		&stubMissionRepo{active: []*catalog.Mission{claimable, untouched}},
		&stubProgressionRepo{missionRecords: []*progression.MissionProgress{record}},
	)

	result, err := handler.Handle(context.Background(), GetDailyMissionsQuery{
		ProfileID: testProfileID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, "2026-03-10", result.Day)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), result.ResetsAt)
	assert.Len(t, result.Missions, 2)

	// Цель достигнута, награда не получена
	assert.Equal(t, 3, result.Missions[0].Progress)
	assert.True(t, result.Missions[0].Ready)
	assert.False(t, result.Missions[0].Claimed)

	// Записи прогресса нет: миссия показывается с нулём
	assert.Equal(t, 0, result.Missions[1].Progress)
	assert.False(t, result.Missions[1].Ready)

	assert.Equal(t, 0, result.ClaimedCount)
}

func TestGetDailyMissions_CountsClaimed(t *testing.T) {
	mission := newQueryMission(t, "m-coins", catalog.MissionEarnCoins, 100, 30, 15)

	record := progression.NewMissionProgress(testProfileID, mission.ID, testNow, testNow)
	assert.NoError(t, record.AddProgress(100, testNow))
	record.Completed = true

	handler := NewGetDailyMissionsHandler(
		&stubMissionRepo{active: []*catalog.Mission{mission}},
		&stubProgressionRepo{missionRecords: []*progression.MissionProgress{record}},
	)

	result, err := handler.Handle(context.Background(), GetDailyMissionsQuery{
		ProfileID: testProfileID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, 1, result.ClaimedCount)
	assert.True(t, result.Missions[0].Claimed)
	assert.False(t, result.Missions[0].Ready)
}

func TestGetDailyMissions_RequiresProfileID(t *testing.T) {
	handler := NewGetDailyMissionsHandler(&stubMissionRepo{}, &stubProgressionRepo{})

	_, err := handler.Handle(context.Background(), GetDailyMissionsQuery{})
	assert.Error(t, err)
}
