package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// profileCacheTTL ограничивает жизнь кешированного профиля: запись
// инвалидируется командами, TTL страхует от пропущенной инвалидации.
const profileCacheTTL = 10 * time.Minute

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE OVERVIEW QUERY
// Собирает главный экран профиля: игровые показатели, прогресс уровня,
// счётчики и позиции в рейтингах. Профиль читается через кеш.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileOverviewQuery содержит параметры запроса профиля.
type GetProfileOverviewQuery struct {
	// ProfileID - идентификатор запрашиваемого профиля.
	ProfileID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetProfileOverviewQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// ProfileOverviewDTO - DTO главного экрана профиля.
type ProfileOverviewDTO struct {
	ProfileID      string `json:"profile_id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	FavoriteColor  string `json:"favorite_color,omitempty"`
	SelectedAvatar string `json:"selected_avatar,omitempty"`
	Plan           string `json:"plan"`
	Role           string `json:"role"`

	// Игровые показатели.
	TotalCoins    int `json:"total_coins"`
	TotalXP       int `json:"total_xp"`
	Level         int `json:"level"`
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`

	// LevelProgress - доля пути до следующего уровня (0.0 - 1.0).
	LevelProgress float64 `json:"level_progress"`

	// NextLevelThreshold - порог опыта следующего уровня.
	NextLevelThreshold int `json:"next_level_threshold"`

	// ActiveToday - засчитана ли активность за сегодня.
	ActiveToday bool `json:"active_today"`

	// DaysUntilStreakBreak - сколько дней осталось до обнуления серии.
	DaysUntilStreakBreak int `json:"days_until_streak_break"`

	// Счётчики прогресса.
	LessonsCompleted     int `json:"lessons_completed"`
	AchievementsUnlocked int `json:"achievements_unlocked"`
	Purchases            int `json:"purchases"`
	MissionsClaimedToday int `json:"missions_claimed_today"`

	// Позиции в рейтингах (0 = вне рейтинга).
	CoinsRank  int `json:"coins_rank"`
	StreakRank int `json:"streak_rank"`

	CreatedAt time.Time `json:"created_at"`
}

// GetProfileOverviewResult содержит результат запроса профиля.
type GetProfileOverviewResult struct {
	Overview ProfileOverviewDTO `json:"overview"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetProfileOverviewHandler обрабатывает запросы главного экрана профиля.
type GetProfileOverviewHandler struct {
	profiles    profile.Repository
	cache       profile.Cache
	progression progression.Repository
	boards      leaderboard.Repository
}

// NewGetProfileOverviewHandler создаёт новый обработчик.
func NewGetProfileOverviewHandler(
	profiles profile.Repository,
	cache profile.Cache,
	progressionRepo progression.Repository,
	boards leaderboard.Repository,
) *GetProfileOverviewHandler {
	return &GetProfileOverviewHandler{
		profiles:    profiles,
		cache:       cache,
		progression: progressionRepo,
		boards:      boards,
	}
}

// Handle выполняет запрос главного экрана профиля.
func (h *GetProfileOverviewHandler) Handle(ctx context.Context, query GetProfileOverviewQuery) (*GetProfileOverviewResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProfileOverview", shared.ErrValidation, err.Error(), err)
	}

	p, err := h.loadProfile(ctx, query.ProfileID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	streak := profile.StreakState{
		Current:      p.CurrentStreak,
		Longest:      p.LongestStreak,
		LastActivity: p.LastActivityDate,
	}

	overview := ProfileOverviewDTO{
		ProfileID:            p.ID,
		Email:                p.Email.String(),
		DisplayName:          p.DisplayName,
		Bio:                  p.Bio,
		AvatarURL:            p.AvatarURL,
		FavoriteColor:        p.FavoriteColor,
		SelectedAvatar:       p.SelectedAvatar,
		Plan:                 p.Plan.String(),
		Role:                 string(p.Role),
		TotalCoins:           int(p.TotalCoins),
		TotalXP:              int(p.ExperiencePoints),
		Level:                int(p.Level),
		CurrentStreak:        p.CurrentStreak,
		LongestStreak:        p.LongestStreak,
		LevelProgress:        p.LevelProgress(),
		NextLevelThreshold:   p.NextLevelThreshold(),
		ActiveToday:          p.WasActiveToday(now),
		DaysUntilStreakBreak: streak.DaysUntilBreak(now),
		CreatedAt:            p.CreatedAt,
	}

	// Счётчики и ранги обогащают ответ, но их отсутствие не ломает его.
	if lessons, err := h.progression.CountCompletedLessons(ctx, p.ID); err == nil {
		overview.LessonsCompleted = lessons
	}
	if unlocked, err := h.progression.ListUnlockedAchievements(ctx, p.ID); err == nil {
		overview.AchievementsUnlocked = len(unlocked)
	}
	if purchases, err := h.progression.CountPurchases(ctx, p.ID); err == nil {
		overview.Purchases = purchases
	}
	if claimed, err := h.progression.CountClaimedMissions(ctx, p.ID, timeutil.StartOfDay(now)); err == nil {
		overview.MissionsClaimedToday = claimed
	}
	if rank, err := h.boards.GetRank(ctx, leaderboard.BoardCoins, p.ID); err == nil {
		overview.CoinsRank = int(rank)
	}
	if rank, err := h.boards.GetRank(ctx, leaderboard.BoardStreak, p.ID); err == nil {
		overview.StreakRank = int(rank)
	}

	return &GetProfileOverviewResult{
		Overview:    overview,
		GeneratedAt: now,
	}, nil
}

// loadProfile читает профиль через кеш с фоллбеком на репозиторий.
func (h *GetProfileOverviewHandler) loadProfile(ctx context.Context, profileID string) (*profile.Profile, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, profileID); err == nil && cached != nil {
			return cached, nil
		}
	}

	p, err := h.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, p, profileCacheTTL)
	}

	return p, nil
}
