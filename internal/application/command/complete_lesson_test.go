package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func newCompleteLessonFixture(t *testing.T, p *profile.Profile, lessonCoins, lessonXP int) (*CompleteLessonHandler, *fakeProfileRepo, *fakeProgressionRepo, *fakePublisher) {
	t.Helper()
	profiles := newFakeProfileRepo(p)
	lessons := newFakeLessonRepo(newTestLesson(t, lessonCoins, lessonXP))
	progressionRepo := newFakeProgressionRepo()
	publisher := &fakePublisher{}
	handler := NewCompleteLessonHandler(
		profiles, lessons, progressionRepo,
		progression.NewLedger(nil), &fakeProfileCache{}, publisher)
	return handler, profiles, progressionRepo, publisher
}

func TestCompleteLesson_FirstCompletionRewards(t *testing.T) {
	handler, profiles, progressionRepo, publisher := newCompleteLessonFixture(t, newTestProfile(t, 0, 0), 50, 25)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 50, result.CoinsEarned)
	assert.Equal(t, 25, result.XPEarned)
	assert.Equal(t, 50, result.TotalCoins)
	assert.Equal(t, 25, result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.True(t, result.StreakExtended)

	// Профиль и прогресс сохранены
	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(50), stored.TotalCoins)
	assert.Equal(t, 2, stored.Version)

	lp, err := progressionRepo.GetLessonProgress(context.Background(), testProfileID, testLessonID)
	assert.NoError(t, err)
	assert.True(t, lp.Completed)
	assert.Equal(t, 100, lp.Progress)

	assert.Equal(t, []shared.EventType{
		shared.EventLessonCompleted,
		shared.EventXPGained,
		shared.EventStreakExtended,
	}, publisher.types())
}

func TestCompleteLesson_RepeatIsNoOp(t *testing.T) {
	handler, profiles, _, publisher := newCompleteLessonFixture(t, newTestProfile(t, 0, 0), 50, 25)

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)
	publishedBefore := len(publisher.types())

	second, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Timestamp: testNow.Add(time.Hour),
	})
	assert.NoError(t, err)

	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, 0, second.CoinsEarned)
	assert.Equal(t, 50, second.TotalCoins)

	// Баланс не изменился, новых событий нет
	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(50), stored.TotalCoins)
	assert.Len(t, publisher.types(), publishedBefore)
}

func TestCompleteLesson_QuizScoreStored(t *testing.T) {
	handler, _, progressionRepo, _ := newCompleteLessonFixture(t, newTestProfile(t, 0, 0), 10, 10)

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Score:     80,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	lp, err := progressionRepo.GetLessonProgress(context.Background(), testProfileID, testLessonID)
	assert.NoError(t, err)
	assert.Equal(t, 80, lp.Score)
}

func TestCompleteLesson_PlanGate(t *testing.T) {
	profiles := newFakeProfileRepo(newTestProfile(t, 0, 0))
	lesson := newTestLesson(t, 50, 25)
	lesson.MinPlan = string(shared.PlanPremium)
	handler := NewCompleteLessonHandler(
		profiles, newFakeLessonRepo(lesson), newFakeProgressionRepo(),
		progression.NewLedger(nil), &fakeProfileCache{}, &fakePublisher{})

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrPlanTooLow)
}

func TestCompleteLesson_UnknownLesson(t *testing.T) {
	handler := NewCompleteLessonHandler(
		newFakeProfileRepo(newTestProfile(t, 0, 0)), newFakeLessonRepo(), newFakeProgressionRepo(),
		progression.NewLedger(nil), &fakeProfileCache{}, &fakePublisher{})

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  "missing",
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

func TestCompleteLesson_RetriesOnVersionConflict(t *testing.T) {
	handler, profiles, _, _ := newCompleteLessonFixture(t, newTestProfile(t, 0, 0), 50, 25)
	profiles.failUpdates = 1

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)
	assert.Equal(t, 50, result.TotalCoins)
	assert.Equal(t, 2, profiles.updateCalls)
}
