package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENTS QUERY
// Каталог достижений с отметками разблокировки пользователя.
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementsQuery содержит параметры запроса достижений.
type ListAchievementsQuery struct {
	// ProfileID - пользователь, чьи разблокировки подмешиваются.
	ProfileID string

	// OnlyUnlocked - возвращать только разблокированные.
	OnlyUnlocked bool
}

// Validate проверяет корректность параметров запроса.
func (q *ListAchievementsQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// AchievementDTO - DTO достижения с отметкой разблокировки.
type AchievementDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	BadgeIcon        string `json:"badge_icon,omitempty"`
	RequirementType  string `json:"requirement_type"`
	RequirementValue int    `json:"requirement_value"`
	CoinsReward      int    `json:"coins_reward"`

	// Unlocked - достижение разблокировано пользователем.
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// ListAchievementsResult содержит результат запроса достижений.
type ListAchievementsResult struct {
	Achievements []AchievementDTO `json:"achievements"`

	// TotalCount - всего достижений в каталоге.
	TotalCount int `json:"total_count"`

	// UnlockedCount - сколько разблокировано пользователем.
	UnlockedCount int `json:"unlocked_count"`
}

// ListAchievementsHandler обрабатывает запросы каталога достижений.
type ListAchievementsHandler struct {
	achievements catalog.AchievementRepository
	progression  progression.Repository
}

// NewListAchievementsHandler создаёт новый обработчик достижений.
func NewListAchievementsHandler(
	achievements catalog.AchievementRepository,
	progressionRepo progression.Repository,
) *ListAchievementsHandler {
	return &ListAchievementsHandler{achievements: achievements, progression: progressionRepo}
}

// Handle выполняет запрос каталога достижений.
func (h *ListAchievementsHandler) Handle(ctx context.Context, query ListAchievementsQuery) (*ListAchievementsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListAchievements", shared.ErrValidation, err.Error(), err)
	}

	all, err := h.achievements.List(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "ListAchievements", shared.ErrServiceUnavailable, "failed to load achievements", err)
	}

	unlocked, err := h.progression.ListUnlockedAchievements(ctx, query.ProfileID)
	if err != nil {
		return nil, shared.WrapError("query", "ListAchievements", shared.ErrServiceUnavailable, "failed to load unlocks", err)
	}

	byID := make(map[string]*progression.UnlockedAchievement, len(unlocked))
	for _, u := range unlocked {
		byID[u.AchievementID] = u
	}

	dtos := make([]AchievementDTO, 0, len(all))
	for _, a := range all {
		record := byID[a.ID]
		if query.OnlyUnlocked && record == nil {
			continue
		}

		dto := AchievementDTO{
			ID:               a.ID,
			Name:             a.Name,
			Description:      a.Description,
			BadgeIcon:        a.BadgeIcon,
			RequirementType:  string(a.RequirementType),
			RequirementValue: a.RequirementValue,
			CoinsReward:      a.CoinsReward,
		}
		if record != nil {
			dto.Unlocked = true
			unlockedAt := record.UnlockedAt
			dto.UnlockedAt = &unlockedAt
		}

		dtos = append(dtos, dto)
	}

	return &ListAchievementsResult{
		Achievements:  dtos,
		TotalCount:    len(all),
		UnlockedCount: len(unlocked),
	}, nil
}
