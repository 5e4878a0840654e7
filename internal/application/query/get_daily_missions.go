package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY MISSIONS QUERY
// Ежедневный набор миссий с прогрессом пользователя за сегодня.
// Миссия без записи прогресса показывается с нулём: запись появляется
// при первом событии прогресса, а не при показе.
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyMissionsQuery содержит параметры запроса миссий дня.
type GetDailyMissionsQuery struct {
	// ProfileID - пользователь, чей прогресс подмешивается.
	ProfileID string

	// Timestamp - момент запроса (по умолчанию сейчас). Определяет день.
	Timestamp time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetDailyMissionsQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// DailyMissionDTO - DTO миссии дня с прогрессом.
type DailyMissionDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Icon        string `json:"icon,omitempty"`

	// TargetValue - целевое значение; Progress - накопленное.
	TargetValue int `json:"target_value"`
	Progress    int `json:"progress"`

	// Ready - цель достигнута, награда ещё не получена.
	Ready bool `json:"ready"`

	// Claimed - награда получена.
	Claimed bool `json:"claimed"`

	CoinsReward int `json:"coins_reward"`
	XPReward    int `json:"xp_reward"`
}

// GetDailyMissionsResult содержит результат запроса миссий дня.
type GetDailyMissionsResult struct {
	// Day - день в формате YYYY-MM-DD (UTC).
	Day string `json:"day"`

	// Missions - миссии набора.
	Missions []DailyMissionDTO `json:"missions"`

	// ClaimedCount - сколько наград уже получено сегодня.
	ClaimedCount int `json:"claimed_count"`

	// ResetsAt - время сброса набора (начало следующего дня UTC).
	ResetsAt time.Time `json:"resets_at"`
}

// GetDailyMissionsHandler обрабатывает запросы миссий дня.
type GetDailyMissionsHandler struct {
	missions    catalog.MissionRepository
	progression progression.Repository
}

// NewGetDailyMissionsHandler создаёт новый обработчик миссий дня.
func NewGetDailyMissionsHandler(
	missions catalog.MissionRepository,
	progressionRepo progression.Repository,
) *GetDailyMissionsHandler {
	return &GetDailyMissionsHandler{
		missions:    missions,
		progression: progressionRepo,
	}
}

// Handle выполняет запрос миссий дня.
func (h *GetDailyMissionsHandler) Handle(ctx context.Context, query GetDailyMissionsQuery) (*GetDailyMissionsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetDailyMissions", shared.ErrValidation, err.Error(), err)
	}

	now := query.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}
	day := timeutil.StartOfDay(now)

	missions, err := h.missions.ListActive(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetDailyMissions", shared.ErrServiceUnavailable, "failed to load missions", err)
	}

	records, err := h.progression.ListMissionProgressForDay(ctx, query.ProfileID, day)
	if err != nil {
		return nil, shared.WrapError("query", "GetDailyMissions", shared.ErrServiceUnavailable, "failed to load progress", err)
	}

	byMission := make(map[string]*progression.MissionProgress, len(records))
	for _, r := range records {
		byMission[r.MissionID] = r
	}

	dtos := make([]DailyMissionDTO, len(missions))
	claimed := 0
	for i, m := range missions {
		dto := DailyMissionDTO{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Type:        string(m.Type),
			Icon:        m.Icon,
			TargetValue: m.TargetValue,
			CoinsReward: m.CoinsReward,
			XPReward:    m.XPReward,
		}

		if r := byMission[m.ID]; r != nil {
			dto.Progress = r.Progress
			dto.Claimed = r.Completed
			dto.Ready = !r.Completed && r.Progress >= m.TargetValue
		}
		if dto.Claimed {
			claimed++
		}

		dtos[i] = dto
	}

	return &GetDailyMissionsResult{
		Day:          timeutil.DayKey(day),
		Missions:     dtos,
		ClaimedCount: claimed,
		ResetsAt:     day.AddDate(0, 0, 1),
	}, nil
}
