package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

const testProfileID = "6f1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"

// ═══════════════════════════════════════════════════════════════════════════
// СТАБЫ
// ═══════════════════════════════════════════════════════════════════════════

type stubMissionRepo struct {
	catalog.MissionRepository
	active []*catalog.Mission
}

func (s *stubMissionRepo) ListActive(_ context.Context) ([]*catalog.Mission, error) {
	return s.active, nil
}

// stubProgressionRepo хранит прогресс миссий в памяти с ключом (миссия, день).
type stubProgressionRepo struct {
	progression.Repository
	missions map[string]*progression.MissionProgress
	lessons  map[string]*progression.LessonProgress
}

func newStubProgressionRepo() *stubProgressionRepo {
	return &stubProgressionRepo{
		missions: make(map[string]*progression.MissionProgress),
		lessons:  make(map[string]*progression.LessonProgress),
	}
}

func (s *stubProgressionRepo) GetMissionProgress(_ context.Context, profileID, missionID string, day time.Time) (*progression.MissionProgress, error) {
	return s.missions[profileID+"/"+missionID+"/"+timeutil.DayKey(day)], nil
}

func (s *stubProgressionRepo) UpsertMissionProgress(_ context.Context, mp *progression.MissionProgress) error {
	s.missions[mp.ProfileID+"/"+mp.MissionID+"/"+timeutil.DayKey(mp.Day)] = mp
	return nil
}

func (s *stubProgressionRepo) GetLessonProgress(_ context.Context, profileID, lessonID string) (*progression.LessonProgress, error) {
	return s.lessons[profileID+"/"+lessonID], nil
}

func (s *stubProgressionRepo) progressFor(missionID string, day time.Time) *progression.MissionProgress {
	return s.missions[testProfileID+"/"+missionID+"/"+timeutil.DayKey(day)]
}

func newEventMission(t *testing.T, id string, missionType catalog.MissionType, target int) *catalog.Mission {
	t.Helper()
	m, err := catalog.NewMission(catalog.NewMissionParams{
		ID:          id,
		Title:       "Миссия дня",
		Type:        missionType,
		TargetValue: target,
		CoinsReward: 10,
		XPReward:    5,
	})
	assert.NoError(t, err)
	return m
}

// ═══════════════════════════════════════════════════════════════════════════
// ТЕСТЫ
// ═══════════════════════════════════════════════════════════════════════════

func TestOnMissionProgress_LessonCompletedAdvancesMissions(t *testing.T) {
	lessonsMission := newEventMission(t, "m-lessons", catalog.MissionCompleteLessons, 3)
	coinsMission := newEventMission(t, "m-coins", catalog.MissionEarnCoins, 100)
	repo := newStubProgressionRepo()
	handler := NewOnMissionProgressHandler(
		&stubMissionRepo{active: []*catalog.Mission{lessonsMission, coinsMission}},
		repo, nil, DefaultMissionProgressConfig())

	event := shared.NewLessonCompletedEvent(testProfileID, "lesson-1", 40, 20)
	assert.NoError(t, handler.Handle(event))

	day := event.OccurredAt()
	assert.Equal(t, 1, repo.progressFor(lessonsMission.ID, day).Progress)
	assert.Equal(t, 40, repo.progressFor(coinsMission.ID, day).Progress)
}

func TestOnMissionProgress_QuizScoreFromLessonRecord(t *testing.T) {
	quizMission := newEventMission(t, "m-quiz", catalog.MissionQuizScore, 200)
	repo := newStubProgressionRepo()
	record := progression.NewLessonProgress(testProfileID, "lesson-1", time.Now().UTC())
	record.Score = 80
	repo.lessons[testProfileID+"/lesson-1"] = record

	handler := NewOnMissionProgressHandler(
		&stubMissionRepo{active: []*catalog.Mission{quizMission}},
		repo, nil, DefaultMissionProgressConfig())

	event := shared.NewLessonCompletedEvent(testProfileID, "lesson-1", 40, 20)
	assert.NoError(t, handler.Handle(event))

	assert.Equal(t, 80, repo.progressFor(quizMission.ID, event.OccurredAt()).Progress)
}

func TestOnMissionProgress_MissionXPDoesNotCascade(t *testing.T) {
	xpMission := newEventMission(t, "m-xp", catalog.MissionEarnXP, 100)
	repo := newStubProgressionRepo()
	handler := NewOnMissionProgressHandler(
		&stubMissionRepo{active: []*catalog.Mission{xpMission}},
		repo, nil, DefaultMissionProgressConfig())

	// Опыт за награду миссии игнорируется
	fromMission := shared.NewXPGainedEvent(testProfileID, 15, 15, "mission")
	assert.NoError(t, handler.Handle(fromMission))
	assert.Nil(t, repo.progressFor(xpMission.ID, fromMission.OccurredAt()))

	// Опыт за урок продвигает
	fromLesson := shared.NewXPGainedEvent(testProfileID, 20, 35, "lesson")
	assert.NoError(t, handler.Handle(fromLesson))
	assert.Equal(t, 20, repo.progressFor(xpMission.ID, fromLesson.OccurredAt()).Progress)
}

func TestOnMissionProgress_StreakSetsLoginMission(t *testing.T) {
	streakMission := newEventMission(t, "m-streak", catalog.MissionLoginStreak, 7)
	repo := newStubProgressionRepo()
	handler := NewOnMissionProgressHandler(
		&stubMissionRepo{active: []*catalog.Mission{streakMission}},
		repo, nil, DefaultMissionProgressConfig())

	event := shared.NewStreakExtendedEvent(testProfileID, 4, 9)
	assert.NoError(t, handler.Handle(event))

	assert.Equal(t, 4, repo.progressFor(streakMission.ID, event.OccurredAt()).Progress)
}

func TestOnMissionProgress_ClaimedMissionUntouched(t *testing.T) {
	coinsMission := newEventMission(t, "m-coins", catalog.MissionEarnCoins, 100)
	repo := newStubProgressionRepo()

	event := shared.NewLessonCompletedEvent(testProfileID, "lesson-1", 40, 20)
	day := timeutil.StartOfDay(event.OccurredAt())
	claimed := progression.NewMissionProgress(testProfileID, coinsMission.ID, day, day)
	assert.NoError(t, claimed.AddProgress(100, day))
	claimed.Completed = true
	assert.NoError(t, repo.UpsertMissionProgress(context.Background(), claimed))

	handler := NewOnMissionProgressHandler(
		&stubMissionRepo{active: []*catalog.Mission{coinsMission}},
		repo, nil, DefaultMissionProgressConfig())
	assert.NoError(t, handler.Handle(event))

	assert.Equal(t, 100, repo.progressFor(coinsMission.ID, day).Progress)
}
