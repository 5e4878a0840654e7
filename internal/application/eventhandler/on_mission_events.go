// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// MISSION PROGRESS HANDLER
// Продвигает прогресс ежедневных миссий по событиям активности пользователя.
//
// Соответствие событий и видов миссий:
// - LessonCompleted → complete_lessons (+1), earn_coins (+монеты урока),
//   quiz_score (+баллы квиза, если урок с квизом)
// - XPGained       → earn_xp (+количество опыта, любой источник)
// - StreakExtended → login_streak (прогресс = текущая серия)
//
// Награды за сами миссии намеренно НЕ продвигают другие миссии:
// иначе получение награды earn_coins тут же докручивало бы её снова.
// ═══════════════════════════════════════════════════════════════════════════

// OnMissionProgressHandler продвигает прогресс ежедневных миссий.
type OnMissionProgressHandler struct {
	missions    catalog.MissionRepository
	progression progression.Repository

	logger *slog.Logger

	config MissionProgressConfig
}

// MissionProgressConfig содержит конфигурацию обработчика.
type MissionProgressConfig struct {
	// CountQuizScores — учитывать ли баллы квизов в миссиях quiz_score.
	CountQuizScores bool
}

// DefaultMissionProgressConfig возвращает конфигурацию по умолчанию.
func DefaultMissionProgressConfig() MissionProgressConfig {
	return MissionProgressConfig{
		CountQuizScores: true,
	}
}

// NewOnMissionProgressHandler создаёт новый обработчик прогресса миссий.
func NewOnMissionProgressHandler(
	missions catalog.MissionRepository,
	progressionRepo progression.Repository,
	logger *slog.Logger,
	config MissionProgressConfig,
) *OnMissionProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnMissionProgressHandler{
		missions:    missions,
		progression: progressionRepo,
		logger:      logger.With("handler", "on_mission_progress"),
		config:      config,
	}
}

// Handle обрабатывает событие активности пользователя.
// Реализует интерфейс shared.EventHandler.
func (h *OnMissionProgressHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	switch e := event.(type) {
	case shared.LessonCompletedEvent:
		return h.handleLessonCompleted(ctx, e)
	case shared.XPGainedEvent:
		return h.handleXPGained(ctx, e)
	case shared.StreakExtendedEvent:
		return h.handleStreakExtended(ctx, e)
	default:
		h.logger.Warn("received unexpected event",
			"event_type", event.EventType(),
		)
		return nil
	}
}

func (h *OnMissionProgressHandler) handleLessonCompleted(
	ctx context.Context,
	event shared.LessonCompletedEvent,
) error {
	deltas := map[catalog.MissionType]int{
		catalog.MissionCompleteLessons: 1,
		catalog.MissionEarnCoins:       event.CoinsEarned,
	}

	// Баллы квиза лежат в записи прогресса урока, не в событии.
	if h.config.CountQuizScores {
		record, err := h.progression.GetLessonProgress(ctx, event.ProfileID, event.LessonID)
		if err != nil {
			h.logger.Error("failed to load lesson progress for quiz score",
				"profile_id", event.ProfileID,
				"lesson_id", event.LessonID,
				"error", err,
			)
		} else if record != nil && record.Score > 0 {
			deltas[catalog.MissionQuizScore] = record.Score
		}
	}

	return h.advance(ctx, event.ProfileID, event.OccurredAt(), deltas)
}

func (h *OnMissionProgressHandler) handleXPGained(
	ctx context.Context,
	event shared.XPGainedEvent,
) error {
	if event.Amount <= 0 {
		return nil
	}
	// Опыт за получение награды миссии не докручивает миссии earn_xp:
	// иначе выполнение одной миссии каскадом закрывало бы другую.
	if event.Source == "mission" {
		return nil
	}
	return h.advance(ctx, event.ProfileID, event.OccurredAt(), map[catalog.MissionType]int{
		catalog.MissionEarnXP: event.Amount,
	})
}

func (h *OnMissionProgressHandler) handleStreakExtended(
	ctx context.Context,
	event shared.StreakExtendedEvent,
) error {
	if event.CurrentStreak <= 0 {
		return nil
	}
	// Запись прогресса создаётся заново на каждый день, поэтому дельта,
	// равная текущей серии, выставляет прогресс ровно в её значение.
	return h.advance(ctx, event.ProfileID, event.OccurredAt(), map[catalog.MissionType]int{
		catalog.MissionLoginStreak: event.CurrentStreak,
	})
}

// advance применяет дельты прогресса ко всем активным миссиям подходящих видов.
// Ошибка по одной миссии не останавливает обработку остальных.
func (h *OnMissionProgressHandler) advance(
	ctx context.Context,
	profileID string,
	occurredAt time.Time,
	deltas map[catalog.MissionType]int,
) error {
	missions, err := h.missions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active missions: %w", err)
	}

	day := timeutil.StartOfDay(occurredAt)

	for _, mission := range missions {
		delta, ok := deltas[mission.Type]
		if !ok || delta <= 0 {
			continue
		}

		if err := h.advanceMission(ctx, profileID, mission, day, delta, occurredAt); err != nil {
			h.logger.Error("failed to advance mission progress",
				"profile_id", profileID,
				"mission_id", mission.ID,
				"mission_type", mission.Type,
				"error", err,
			)
		}
	}

	return nil
}

func (h *OnMissionProgressHandler) advanceMission(
	ctx context.Context,
	profileID string,
	mission *catalog.Mission,
	day time.Time,
	delta int,
	now time.Time,
) error {
	record, err := h.progression.GetMissionProgress(ctx, profileID, mission.ID, day)
	if err != nil {
		return fmt.Errorf("get mission progress: %w", err)
	}
	if record == nil {
		record = progression.NewMissionProgress(profileID, mission.ID, day, now)
	}

	// Награда уже получена — прогресс больше не нужен.
	if record.Completed {
		return nil
	}

	if err := record.AddProgress(delta, now); err != nil {
		return fmt.Errorf("add progress: %w", err)
	}

	if err := h.progression.UpsertMissionProgress(ctx, record); err != nil {
		return fmt.Errorf("upsert mission progress: %w", err)
	}

	h.logger.Debug("mission progress advanced",
		"profile_id", profileID,
		"mission_id", mission.ID,
		"progress", record.Progress,
		"target", mission.TargetValue,
	)

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnMissionProgressHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventLessonCompleted,
		shared.EventXPGained,
		shared.EventStreakExtended,
	}
}
