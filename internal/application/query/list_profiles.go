package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PROFILES QUERY (административная)
// Постраничный список пользователей для панели администратора.
// ══════════════════════════════════════════════════════════════════════════════

// ListProfilesQuery содержит параметры административного списка.
type ListProfilesQuery struct {
	// Offset, Limit - пагинация (Limit по умолчанию 50, максимум 200).
	Offset int
	Limit  int

	// SortBy - поле сортировки: total_coins, experience_points,
	// current_streak, created_at.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// Validate проверяет корректность параметров и нормализует пагинацию.
func (q *ListProfilesQuery) Validate() error {
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	return nil
}

// ProfileSummaryDTO - строка административного списка.
type ProfileSummaryDTO struct {
	ProfileID     string    `json:"profile_id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Plan          string    `json:"plan"`
	Role          string    `json:"role"`
	TotalCoins    int       `json:"total_coins"`
	TotalXP       int       `json:"total_xp"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListProfilesResult содержит страницу пользователей.
type ListProfilesResult struct {
	Profiles   []ProfileSummaryDTO `json:"profiles"`
	TotalCount int                 `json:"total_count"`
	Offset     int                 `json:"offset"`
	Limit      int                 `json:"limit"`
}

// ListProfilesHandler обрабатывает административный список пользователей.
type ListProfilesHandler struct {
	profiles profile.Repository
}

// NewListProfilesHandler создаёт новый обработчик списка пользователей.
func NewListProfilesHandler(profiles profile.Repository) *ListProfilesHandler {
	return &ListProfilesHandler{profiles: profiles}
}

// Handle выполняет запрос списка пользователей.
func (h *ListProfilesHandler) Handle(ctx context.Context, query ListProfilesQuery) (*ListProfilesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListProfiles", shared.ErrValidation, err.Error(), err)
	}

	opts := profile.DefaultListOptions().
		WithOffset(query.Offset).
		WithLimit(query.Limit).
		WithSort(query.SortBy, query.SortDesc)

	profiles, err := h.profiles.GetAll(ctx, opts)
	if err != nil {
		return nil, shared.WrapError("query", "ListProfiles", shared.ErrServiceUnavailable, "failed to load profiles", err)
	}

	total, err := h.profiles.Count(ctx)
	if err != nil {
		total = len(profiles)
	}

	dtos := make([]ProfileSummaryDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = ProfileSummaryDTO{
			ProfileID:     p.ID,
			Email:         p.Email.String(),
			DisplayName:   p.DisplayName,
			Plan:          p.Plan.String(),
			Role:          string(p.Role),
			TotalCoins:    int(p.TotalCoins),
			TotalXP:       int(p.ExperiencePoints),
			Level:         int(p.Level),
			CurrentStreak: p.CurrentStreak,
			CreatedAt:     p.CreatedAt,
		}
	}

	return &ListProfilesResult{
		Profiles:   dtos,
		TotalCount: total,
		Offset:     query.Offset,
		Limit:      query.Limit,
	}, nil
}
