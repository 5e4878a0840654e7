package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS HISTORY QUERY
// История ежедневных показателей для графиков. Снимки пишет ночная
// задача; дни без активности в истории отсутствуют.
// ══════════════════════════════════════════════════════════════════════════════

// GetStatsHistoryQuery содержит параметры запроса истории.
type GetStatsHistoryQuery struct {
	// ProfileID - владелец истории.
	ProfileID string

	// Days - глубина истории в днях (по умолчанию 30, максимум 365).
	Days int
}

// Validate проверяет корректность параметров и нормализует глубину.
func (q *GetStatsHistoryQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	if q.Days <= 0 {
		q.Days = 30
	}
	if q.Days > 365 {
		q.Days = 365
	}
	return nil
}

// DailyStatsDTO - DTO снимка показателей за день.
type DailyStatsDTO struct {
	// Day - день в формате YYYY-MM-DD (UTC).
	Day string `json:"day"`

	CoinsEarned      int `json:"coins_earned"`
	XPEarned         int `json:"xp_earned"`
	LessonsCompleted int `json:"lessons_completed"`
	MissionsClaimed  int `json:"missions_claimed"`
	StreakAtEnd      int `json:"streak_at_end"`
}

// GetStatsHistoryResult содержит историю показателей (старые первыми).
type GetStatsHistoryResult struct {
	History []DailyStatsDTO `json:"history"`

	// Суммарные показатели за период.
	TotalCoinsEarned      int `json:"total_coins_earned"`
	TotalXPEarned         int `json:"total_xp_earned"`
	TotalLessonsCompleted int `json:"total_lessons_completed"`

	// ActiveDays - дней с активностью за период.
	ActiveDays int `json:"active_days"`

	// Days - запрошенная глубина.
	Days int `json:"days"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStatsHistoryHandler обрабатывает запросы истории показателей.
type GetStatsHistoryHandler struct {
	progression progression.Repository
}

// NewGetStatsHistoryHandler создаёт новый обработчик истории.
func NewGetStatsHistoryHandler(progressionRepo progression.Repository) *GetStatsHistoryHandler {
	return &GetStatsHistoryHandler{progression: progressionRepo}
}

// Handle выполняет запрос истории показателей.
func (h *GetStatsHistoryHandler) Handle(ctx context.Context, query GetStatsHistoryQuery) (*GetStatsHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStatsHistory", shared.ErrValidation, err.Error(), err)
	}

	history, err := h.progression.GetDailyStatsHistory(ctx, query.ProfileID, query.Days)
	if err != nil {
		return nil, shared.WrapError("query", "GetStatsHistory", shared.ErrServiceUnavailable, "failed to load stats history", err)
	}

	result := &GetStatsHistoryResult{
		History:     make([]DailyStatsDTO, len(history)),
		ActiveDays:  len(history),
		Days:        query.Days,
		GeneratedAt: time.Now().UTC(),
	}

	for i, s := range history {
		result.History[i] = DailyStatsDTO{
			Day:              timeutil.DayKey(s.Day),
			CoinsEarned:      s.CoinsEarned,
			XPEarned:         s.XPEarned,
			LessonsCompleted: s.LessonsCompleted,
			MissionsClaimed:  s.MissionsClaimed,
			StreakAtEnd:      s.StreakAtEnd,
		}
		result.TotalCoinsEarned += s.CoinsEarned
		result.TotalXPEarned += s.XPEarned
		result.TotalLessonsCompleted += s.LessonsCompleted
	}

	return result, nil
}
