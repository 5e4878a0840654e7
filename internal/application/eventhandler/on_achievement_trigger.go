package eventhandler

import (
	"context"
	"log/slog"

	"github.com/luckcash/luckcash-server/internal/application/saga"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT TRIGGER HANDLER
// Запускает проверку достижений после событий, способных изменить
// показатели пользователя.
//
// Обработчик намеренно НЕ подписан на AchievementUnlocked: монетный бонус
// за достижение мог бы зациклить проверку. Достижения по монетам, до
// которых дотянул бонус, откроются на следующем триггерном событии.
// ═══════════════════════════════════════════════════════════════════════════

// OnAchievementTriggerHandler запускает проверку достижений.
type OnAchievementTriggerHandler struct {
	flow *saga.AchievementFlowSaga

	logger *slog.Logger
}

// NewOnAchievementTriggerHandler создаёт новый обработчик триггеров достижений.
func NewOnAchievementTriggerHandler(
	flow *saga.AchievementFlowSaga,
	logger *slog.Logger,
) *OnAchievementTriggerHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnAchievementTriggerHandler{
		flow:   flow,
		logger: logger.With("handler", "on_achievement_trigger"),
	}
}

// Handle обрабатывает триггерное событие и запускает проверку достижений.
// Реализует интерфейс shared.EventHandler.
func (h *OnAchievementTriggerHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	var (
		result *saga.AchievementFlowResult
		err    error
	)

	switch e := event.(type) {
	case shared.LessonCompletedEvent:
		result, err = h.flow.CheckAfterLessonCompleted(ctx, e.ProfileID)
	case shared.XPGainedEvent:
		result, err = h.flow.CheckAfterXPGain(ctx, e.ProfileID)
	case shared.PurchaseMadeEvent:
		result, err = h.flow.CheckAfterPurchase(ctx, e.ProfileID)
	case shared.StreakExtendedEvent:
		result, err = h.flow.CheckAfterStreakExtended(ctx, e.ProfileID)
	default:
		h.logger.Warn("received unexpected event",
			"event_type", event.EventType(),
		)
		return nil
	}

	if err != nil {
		// Проверка достижений повторится на следующем триггере,
		// поэтому ошибка не возвращается в шину.
		h.logger.Error("achievement check failed",
			"aggregate_id", event.AggregateID(),
			"event_type", event.EventType(),
			"error", err,
		)
		return nil
	}

	if result != nil && result.HasNewUnlocks() {
		h.logger.Info("achievements unlocked",
			"profile_id", result.ProfileID,
			"unlocked", len(result.NewUnlocks),
			"coins_bonus", result.TotalCoinsBonus,
		)
	}

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnAchievementTriggerHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventLessonCompleted,
		shared.EventXPGained,
		shared.EventPurchaseMade,
		shared.EventStreakExtended,
	}
}
