package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// DAILY STATS HANDLER
// Копит дневные счётчики пользователя по событиям прогрессии и отмечает
// активность. Ночная задача сливает счётчики в историю статистики.
// ═══════════════════════════════════════════════════════════════════════════

// StatsRecorder накапливает дневные счётчики пользователя.
// Реализуется Redis-аккумулятором из слоя инфраструктуры.
type StatsRecorder interface {
	AddLessonCompleted(ctx context.Context, profileID string, at time.Time, coins, xp int) error
	AddMissionClaimed(ctx context.Context, profileID string, at time.Time, coins, xp int) error
	AddReward(ctx context.Context, profileID string, at time.Time, coins, xp int) error
}

// ActivityRecorder отмечает факт активности пользователя.
type ActivityRecorder interface {
	Record(ctx context.Context, profileID, action string) error
}

// OnDailyStatsHandler обновляет дневные счётчики и отметки активности.
type OnDailyStatsHandler struct {
	stats    StatsRecorder
	activity ActivityRecorder

	logger *slog.Logger
}

// NewOnDailyStatsHandler создаёт новый обработчик дневной статистики.
func NewOnDailyStatsHandler(
	stats StatsRecorder,
	activity ActivityRecorder,
	logger *slog.Logger,
) *OnDailyStatsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnDailyStatsHandler{
		stats:    stats,
		activity: activity,
		logger:   logger.With("handler", "on_daily_stats"),
	}
}

// Handle обрабатывает событие прогрессии.
// Реализует интерфейс shared.EventHandler.
//
// Счётчики и отметки активности - вспомогательные данные: любая ошибка
// логируется, но не возвращается в шину, чтобы не блокировать остальных
// подписчиков.
func (h *OnDailyStatsHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	switch e := event.(type) {
	case shared.LessonCompletedEvent:
		h.record(ctx, e.ProfileID, "lesson_completed")
		h.accumulate(e.ProfileID, func() error {
			return h.stats.AddLessonCompleted(ctx, e.ProfileID, e.OccurredAt(), e.CoinsEarned, e.XPEarned)
		})
	case shared.MissionClaimedEvent:
		h.record(ctx, e.ProfileID, "mission_claimed")
		h.accumulate(e.ProfileID, func() error {
			return h.stats.AddMissionClaimed(ctx, e.ProfileID, e.OccurredAt(), e.CoinsEarned, e.XPEarned)
		})
	case shared.AchievementUnlockedEvent:
		h.accumulate(e.ProfileID, func() error {
			return h.stats.AddReward(ctx, e.ProfileID, e.OccurredAt(), e.CoinsEarned, 0)
		})
	case shared.PurchaseMadeEvent:
		// Траты не копятся в дневные счётчики, но покупка - активность.
		h.record(ctx, e.ProfileID, "purchase")
	default:
		h.logger.Warn("received unexpected event",
			"event_type", event.EventType(),
		)
	}

	return nil
}

func (h *OnDailyStatsHandler) accumulate(profileID string, fn func() error) {
	if h.stats == nil {
		return
	}
	if err := fn(); err != nil {
		h.logger.Error("failed to accumulate day counters",
			"profile_id", profileID,
			"error", err,
		)
	}
}

func (h *OnDailyStatsHandler) record(ctx context.Context, profileID, action string) {
	if h.activity == nil {
		return
	}
	if err := h.activity.Record(ctx, profileID, action); err != nil {
		h.logger.Error("failed to record activity",
			"profile_id", profileID,
			"action", action,
			"error", err,
		)
	}
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnDailyStatsHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventLessonCompleted,
		shared.EventMissionClaimed,
		shared.EventAchievementUnlocked,
		shared.EventPurchaseMade,
	}
}
