package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT (Достижение)
// ══════════════════════════════════════════════════════════════════════════════

// RequirementType определяет, по какому показателю проверяется достижение.
type RequirementType string

const (
	// RequireLessons - завершено N уроков.
	RequireLessons RequirementType = "lessons_completed"
	// RequireCoins - накоплено N монет за всё время.
	RequireCoins RequirementType = "total_coins"
	// RequireXP - накоплено N очков опыта.
	RequireXP RequirementType = "experience_points"
	// RequireStreak - серия из N активных дней.
	RequireStreak RequirementType = "streak_days"
	// RequireLevel - достигнут уровень N.
	RequireLevel RequirementType = "level"
	// RequirePurchases - совершено N покупок в магазине наград.
	RequirePurchases RequirementType = "purchases"
)

// IsValid проверяет, что тип требования корректен.
func (r RequirementType) IsValid() bool {
	switch r {
	case RequireLessons, RequireCoins, RequireXP, RequireStreak, RequireLevel, RequirePurchases:
		return true
	default:
		return false
	}
}

// Achievement - достижение из каталога.
// Факт разблокировки конкретным пользователем живёт в
// progression.UnlockedAchievement и никогда не отзывается.
type Achievement struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// Name - название достижения.
	Name string

	// Description - описание условия.
	Description string

	// BadgeIcon - иконка значка (эмодзи или ключ).
	BadgeIcon string

	// RequirementType - показатель, по которому проверяется условие.
	RequirementType RequirementType

	// RequirementValue - пороговое значение показателя.
	RequirementValue int

	// CoinsReward - бонус монетами за разблокировку.
	CoinsReward int

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// ProgressSnapshot - срез показателей пользователя для проверки достижений.
type ProgressSnapshot struct {
	LessonsCompleted int
	TotalCoins       int
	ExperiencePoints int
	CurrentStreak    int
	LongestStreak    int
	Level            int
	Purchases        int
}

// Satisfied проверяет, выполнено ли условие достижения для данного среза.
// Для серий учитывается лучшая серия: однажды заработанное достижение
// не должно зависеть от текущего состояния.
func (a *Achievement) Satisfied(s ProgressSnapshot) bool {
	switch a.RequirementType {
	case RequireLessons:
		return s.LessonsCompleted >= a.RequirementValue
	case RequireCoins:
		return s.TotalCoins >= a.RequirementValue
	case RequireXP:
		return s.ExperiencePoints >= a.RequirementValue
	case RequireStreak:
		return s.LongestStreak >= a.RequirementValue
	case RequireLevel:
		return s.Level >= a.RequirementValue
	case RequirePurchases:
		return s.Purchases >= a.RequirementValue
	default:
		return false
	}
}

// Ошибки валидации достижения.
var (
	ErrInvalidAchievementName        = errors.New("invalid achievement name: must be 1-200 chars")
	ErrInvalidAchievementRequirement = errors.New("invalid achievement requirement")
)

// NewAchievementParams содержит параметры для создания достижения.
type NewAchievementParams struct {
	ID               string
	Name             string
	Description      string
	BadgeIcon        string
	RequirementType  RequirementType
	RequirementValue int
	CoinsReward      int
}

// NewAchievement создаёт достижение с валидацией всех полей.
func NewAchievement(params NewAchievementParams) (*Achievement, error) {
	if params.ID == "" {
		return nil, errors.New("achievement id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 200 {
		return nil, ErrInvalidAchievementName
	}

	if !params.RequirementType.IsValid() || params.RequirementValue <= 0 {
		return nil, ErrInvalidAchievementRequirement
	}

	if params.CoinsReward < 0 {
		return nil, ErrInvalidAchievementRequirement
	}

	return &Achievement{
		ID:               params.ID,
		Name:             name,
		Description:      strings.TrimSpace(params.Description),
		BadgeIcon:        params.BadgeIcon,
		RequirementType:  params.RequirementType,
		RequirementValue: params.RequirementValue,
		CoinsReward:      params.CoinsReward,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
