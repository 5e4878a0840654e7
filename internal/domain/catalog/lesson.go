package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON (Урок)
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty определяет уровень сложности урока.
type Difficulty string

const (
	// DifficultyBeginner - для начинающих.
	DifficultyBeginner Difficulty = "beginner"
	// DifficultyIntermediate - средний уровень.
	DifficultyIntermediate Difficulty = "intermediate"
	// DifficultyAdvanced - продвинутый уровень.
	DifficultyAdvanced Difficulty = "advanced"
)

// IsValid проверяет, что сложность корректна.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// Lesson - урок финансовой грамотности.
// Справочная сущность: одна на всех пользователей, только для чтения.
type Lesson struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// Title - заголовок урока.
	Title string

	// Description - краткое описание.
	Description string

	// Category - категория (budgeting, saving, investing, credit...).
	Category string

	// Difficulty - уровень сложности.
	Difficulty Difficulty

	// OrderIndex - позиция урока в списке категории.
	OrderIndex int

	// CoinsReward - награда монетами за завершение.
	CoinsReward int

	// XPReward - награда опытом за завершение.
	XPReward int

	// Content - тело урока (markdown).
	Content string

	// MinPlan - минимальный тарифный план для доступа к уроку
	// ("free", "basic", "premium").
	MinPlan string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Ошибки валидации урока.
var (
	ErrInvalidLessonTitle  = errors.New("invalid lesson title: must be 1-200 chars")
	ErrInvalidLessonReward = errors.New("invalid lesson reward: must be non-negative")
	ErrInvalidDifficulty   = errors.New("invalid lesson difficulty")
)

// NewLessonParams содержит параметры для создания урока.
type NewLessonParams struct {
	ID          string
	Title       string
	Description string
	Category    string
	Difficulty  Difficulty
	OrderIndex  int
	CoinsReward int
	XPReward    int
	Content     string
	MinPlan     string
}

// NewLesson создаёт урок с валидацией всех полей.
func NewLesson(params NewLessonParams) (*Lesson, error) {
	if params.ID == "" {
		return nil, errors.New("lesson id is required")
	}

	title := strings.TrimSpace(params.Title)
	if len(title) == 0 || len(title) > 200 {
		return nil, ErrInvalidLessonTitle
	}

	if !params.Difficulty.IsValid() {
		return nil, ErrInvalidDifficulty
	}

	if params.CoinsReward < 0 || params.XPReward < 0 {
		return nil, ErrInvalidLessonReward
	}

	minPlan := params.MinPlan
	if minPlan == "" {
		minPlan = "free"
	}

	now := time.Now().UTC()

	return &Lesson{
		ID:          params.ID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Category:    strings.ToLower(strings.TrimSpace(params.Category)),
		Difficulty:  params.Difficulty,
		OrderIndex:  params.OrderIndex,
		CoinsReward: params.CoinsReward,
		XPReward:    params.XPReward,
		Content:     params.Content,
		MinPlan:     minPlan,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
