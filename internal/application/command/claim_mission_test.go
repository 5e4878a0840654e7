package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

func newClaimMissionFixture(t *testing.T, mission *catalog.Mission) (*ClaimMissionHandler, *fakeProfileRepo, *fakeProgressionRepo, *fakePublisher) {
	t.Helper()
	profiles := newFakeProfileRepo(newTestProfile(t, 0, 0))
	progressionRepo := newFakeProgressionRepo()
	publisher := &fakePublisher{}
	handler := NewClaimMissionHandler(
		profiles, newFakeMissionRepo(mission), progressionRepo,
		progression.NewLedger(nil), &fakeProfileCache{}, publisher)
	return handler, profiles, progressionRepo, publisher
}

// seedMissionProgress записывает прогресс миссии на день testNow.
func seedMissionProgress(t *testing.T, repo *fakeProgressionRepo, missionID string, progressValue int) {
	t.Helper()
	mp := progression.NewMissionProgress(testProfileID, missionID, testNow, testNow)
	if progressValue > 0 {
		assert.NoError(t, mp.AddProgress(progressValue, testNow))
	}
	assert.NoError(t, repo.UpsertMissionProgress(context.Background(), mp))
}

func TestClaimMission_EligibleClaim(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	handler, profiles, progressionRepo, publisher := newClaimMissionFixture(t, mission)
	seedMissionProgress(t, progressionRepo, mission.ID, 100)

	result, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, 30, result.CoinsEarned)
	assert.Equal(t, 15, result.XPEarned)
	assert.Equal(t, timeutil.StartOfDay(testNow), result.Day)

	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(30), stored.TotalCoins)

	mp, err := progressionRepo.GetMissionProgress(context.Background(), testProfileID, mission.ID, testNow)
	assert.NoError(t, err)
	assert.True(t, mp.Completed)

	assert.Contains(t, publisher.types(), shared.EventMissionClaimed)
}

func TestClaimMission_NoProgressRecord(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	handler, _, _, _ := newClaimMissionFixture(t, mission)

	_, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrMissionNotAssigned)
}

func TestClaimMission_TargetNotReached(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	handler, _, progressionRepo, _ := newClaimMissionFixture(t, mission)
	seedMissionProgress(t, progressionRepo, mission.ID, 40)

	_, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrMissionIncomplete)
}

func TestClaimMission_AlreadyClaimed(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	handler, profiles, progressionRepo, _ := newClaimMissionFixture(t, mission)
	seedMissionProgress(t, progressionRepo, mission.ID, 100)

	_, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	_, err = handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrMissionAlreadyClaimed)

	// Награда не задвоилась
	assert.Equal(t, shared.Coins(30), profiles.mustGet(t, testProfileID).TotalCoins)
}

func TestClaimMission_InactiveMission(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	mission.Active = false
	handler, _, progressionRepo, _ := newClaimMissionFixture(t, mission)
	seedMissionProgress(t, progressionRepo, mission.ID, 100)

	_, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrMissionNotAssigned)
}

func TestClaimMission_YesterdayProgressDoesNotCount(t *testing.T) {
	mission := newTestMission(t, 100, 30, 15)
	handler, _, progressionRepo, _ := newClaimMissionFixture(t, mission)

	// Прогресс записан на вчера, claim идёт сегодня
	yesterday := testNow.AddDate(0, 0, -1)
	mp := progression.NewMissionProgress(testProfileID, mission.ID, yesterday, yesterday)
	assert.NoError(t, mp.AddProgress(100, yesterday))
	assert.NoError(t, progressionRepo.UpsertMissionProgress(context.Background(), mp))

	_, err := handler.Handle(context.Background(), ClaimMissionCommand{
		ProfileID: testProfileID,
		MissionID: mission.ID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrMissionNotAssigned)
}
