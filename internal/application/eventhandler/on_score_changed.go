package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// SCORE CHANGED HANDLER
// Поддерживает живые рейтинги в актуальном состоянии между фоновыми
// пересборками снимков.
//
// Рейтинг монет: события не несут нового баланса, поэтому обработчик
// перечитывает профиль и публикует его текущий TotalCoins.
// Рейтинг серий: StreakExtended несёт значение серии, профиль не нужен.
// ═══════════════════════════════════════════════════════════════════════════

// OnScoreChangedHandler обновляет живые рейтинги по событиям прогрессии.
type OnScoreChangedHandler struct {
	profiles profile.Repository
	boards   leaderboard.Repository

	logger *slog.Logger

	config ScoreChangedConfig
}

// ScoreChangedConfig содержит конфигурацию обработчика.
type ScoreChangedConfig struct {
	// UpdateCoinsBoard — обновлять ли живой рейтинг по монетам.
	UpdateCoinsBoard bool

	// UpdateStreakBoard — обновлять ли живой рейтинг по сериям.
	UpdateStreakBoard bool
}

// DefaultScoreChangedConfig возвращает конфигурацию по умолчанию.
func DefaultScoreChangedConfig() ScoreChangedConfig {
	return ScoreChangedConfig{
		UpdateCoinsBoard:  true,
		UpdateStreakBoard: true,
	}
}

// NewOnScoreChangedHandler создаёт новый обработчик изменения показателей.
func NewOnScoreChangedHandler(
	profiles profile.Repository,
	boards leaderboard.Repository,
	logger *slog.Logger,
	config ScoreChangedConfig,
) *OnScoreChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnScoreChangedHandler{
		profiles: profiles,
		boards:   boards,
		logger:   logger.With("handler", "on_score_changed"),
		config:   config,
	}
}

// Handle обрабатывает событие, меняющее показатели рейтингов.
// Реализует интерфейс shared.EventHandler.
func (h *OnScoreChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	switch e := event.(type) {
	case shared.StreakExtendedEvent:
		return h.updateStreakScore(ctx, e.ProfileID, e.CurrentStreak)
	case shared.LessonCompletedEvent:
		return h.updateCoinsScore(ctx, e.ProfileID)
	case shared.MissionClaimedEvent:
		return h.updateCoinsScore(ctx, e.ProfileID)
	case shared.PurchaseMadeEvent:
		return h.updateCoinsScore(ctx, e.ProfileID)
	case shared.AchievementUnlockedEvent:
		return h.updateCoinsScore(ctx, e.ProfileID)
	default:
		h.logger.Warn("received unexpected event",
			"event_type", event.EventType(),
		)
		return nil
	}
}

func (h *OnScoreChangedHandler) updateCoinsScore(ctx context.Context, profileID string) error {
	if !h.config.UpdateCoinsBoard {
		return nil
	}

	p, err := h.profiles.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	score := leaderboard.Score(p.TotalCoins.Int())
	if err := h.boards.UpdateScore(ctx, leaderboard.BoardCoins, profileID, score); err != nil {
		return fmt.Errorf("update coins score: %w", err)
	}

	h.logger.Debug("coins score updated",
		"profile_id", profileID,
		"score", score,
	)

	return nil
}

func (h *OnScoreChangedHandler) updateStreakScore(ctx context.Context, profileID string, streak int) error {
	if !h.config.UpdateStreakBoard {
		return nil
	}

	score := leaderboard.Score(streak)
	if err := h.boards.UpdateScore(ctx, leaderboard.BoardStreak, profileID, score); err != nil {
		return fmt.Errorf("update streak score: %w", err)
	}

	h.logger.Debug("streak score updated",
		"profile_id", profileID,
		"score", score,
	)

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnScoreChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventStreakExtended,
		shared.EventLessonCompleted,
		shared.EventMissionClaimed,
		shared.EventPurchaseMade,
		shared.EventAchievementUnlocked,
	}
}
