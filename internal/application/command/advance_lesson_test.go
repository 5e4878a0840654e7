package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func newAdvanceLessonFixture(t *testing.T) (*AdvanceLessonHandler, *fakeProfileRepo, *fakeProgressionRepo, *fakePublisher) {
	t.Helper()
	profiles := newFakeProfileRepo(newTestProfile(t, 0, 0))
	lessons := newFakeLessonRepo(newTestLesson(t, 40, 20))
	progressionRepo := newFakeProgressionRepo()
	publisher := &fakePublisher{}
	handler := NewAdvanceLessonHandler(
		profiles, lessons, progressionRepo,
		progression.NewLedger(nil), &fakeProfileCache{}, publisher)
	return handler, profiles, progressionRepo, publisher
}

func TestAdvanceLesson_AccumulatesProgress(t *testing.T) {
	handler, profiles, _, publisher := newAdvanceLessonFixture(t)

	result, err := handler.Handle(context.Background(), AdvanceLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Increment: 30,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, 30, result.Progress)
	assert.False(t, result.Completed)
	assert.Equal(t, 0, result.CoinsEarned)

	// Награды нет до завершения, но первая активность дня продлевает серию
	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(0), stored.TotalCoins)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t,
		[]shared.EventType{shared.EventLessonProgressed, shared.EventStreakExtended},
		publisher.types())
}

func TestAdvanceLesson_ReachingFullCompletesOnce(t *testing.T) {
	handler, profiles, _, publisher := newAdvanceLessonFixture(t)

	for _, inc := range []int{60, 60} {
		_, err := handler.Handle(context.Background(), AdvanceLessonCommand{
			ProfileID: testProfileID,
			LessonID:  testLessonID,
			Increment: inc,
			Timestamp: testNow,
		})
		assert.NoError(t, err)
	}

	// Второй вызов довёл до 100 и выдал награду ровно один раз
	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(40), stored.TotalCoins)
	assert.Equal(t, shared.XP(20), stored.ExperiencePoints)

	types := publisher.types()
	completed := 0
	for _, ty := range types {
		if ty == shared.EventLessonCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestAdvanceLesson_AfterCompletionIsTerminal(t *testing.T) {
	handler, profiles, _, publisher := newAdvanceLessonFixture(t)

	_, err := handler.Handle(context.Background(), AdvanceLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Increment: 100,
		Timestamp: testNow,
	})
	assert.NoError(t, err)
	publishedBefore := len(publisher.types())

	result, err := handler.Handle(context.Background(), AdvanceLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Increment: 10,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, 100, result.Progress)
	assert.True(t, result.Completed)
	assert.Equal(t, 0, result.CoinsEarned)
	assert.Equal(t, shared.Coins(40), profiles.mustGet(t, testProfileID).TotalCoins)
	assert.Len(t, publisher.types(), publishedBefore)
}

func TestAdvanceLesson_RejectsNonPositiveIncrement(t *testing.T) {
	handler, _, _, _ := newAdvanceLessonFixture(t)

	_, err := handler.Handle(context.Background(), AdvanceLessonCommand{
		ProfileID: testProfileID,
		LessonID:  testLessonID,
		Increment: 0,
		Timestamp: testNow,
	})
	assert.Error(t, err)
}
