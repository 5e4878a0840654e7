package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST LESSONS QUERY
// Каталог уроков, объединённый с персональным прогрессом пользователя.
// Уроки выше тарифа помечаются как заблокированные, но остаются в
// списке - витрина показывает, что даёт апгрейд.
// ══════════════════════════════════════════════════════════════════════════════

// ListLessonsQuery содержит параметры запроса каталога уроков.
type ListLessonsQuery struct {
	// ProfileID - пользователь, чей прогресс подмешивается.
	ProfileID string

	// Category - фильтр по категории (пустая строка = все).
	Category string
}

// Validate проверяет корректность параметров запроса.
func (q *ListLessonsQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// LessonDTO - DTO урока с персональным прогрессом.
type LessonDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	OrderIndex  int    `json:"order_index"`
	CoinsReward int    `json:"coins_reward"`
	XPReward    int    `json:"xp_reward"`
	MinPlan     string `json:"min_plan"`

	// Locked - урок требует более высокого тарифа.
	Locked bool `json:"locked"`

	// Персональный прогресс.
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	Score       int        `json:"score,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LessonDetailDTO - DTO одного урока с телом.
type LessonDetailDTO struct {
	LessonDTO
	Content string `json:"content"`
}

// ListLessonsResult содержит результат запроса каталога уроков.
type ListLessonsResult struct {
	Lessons []LessonDTO `json:"lessons"`

	// TotalCount - количество уроков в выборке.
	TotalCount int `json:"total_count"`

	// CompletedCount - сколько из них завершено пользователем.
	CompletedCount int `json:"completed_count"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListLessonsHandler обрабатывает запросы каталога уроков.
type ListLessonsHandler struct {
	lessons     catalog.LessonRepository
	profiles    profile.Repository
	progression progression.Repository
}

// NewListLessonsHandler создаёт новый обработчик каталога уроков.
func NewListLessonsHandler(
	lessons catalog.LessonRepository,
	profiles profile.Repository,
	progressionRepo progression.Repository,
) *ListLessonsHandler {
	return &ListLessonsHandler{
		lessons:     lessons,
		profiles:    profiles,
		progression: progressionRepo,
	}
}

// Handle выполняет запрос каталога уроков.
func (h *ListLessonsHandler) Handle(ctx context.Context, query ListLessonsQuery) (*ListLessonsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListLessons", shared.ErrValidation, err.Error(), err)
	}

	p, err := h.profiles.GetByID(ctx, query.ProfileID)
	if err != nil {
		return nil, err
	}

	var lessons []*catalog.Lesson
	if query.Category != "" {
		lessons, err = h.lessons.ListByCategory(ctx, query.Category)
	} else {
		lessons, err = h.lessons.List(ctx)
	}
	if err != nil {
		return nil, shared.WrapError("query", "ListLessons", shared.ErrServiceUnavailable, "failed to load lessons", err)
	}

	records, err := h.progression.ListLessonProgress(ctx, query.ProfileID)
	if err != nil {
		return nil, shared.WrapError("query", "ListLessons", shared.ErrServiceUnavailable, "failed to load progress", err)
	}

	byLesson := make(map[string]*progression.LessonProgress, len(records))
	for _, r := range records {
		byLesson[r.LessonID] = r
	}

	dtos := make([]LessonDTO, len(lessons))
	completed := 0
	for i, lesson := range lessons {
		dto := toLessonDTO(lesson, byLesson[lesson.ID], p.Plan)
		if dto.Completed {
			completed++
		}
		dtos[i] = dto
	}

	return &ListLessonsResult{
		Lessons:        dtos,
		TotalCount:     len(dtos),
		CompletedCount: completed,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonQuery содержит параметры запроса одного урока.
type GetLessonQuery struct {
	ProfileID string
	LessonID  string
}

// Validate проверяет корректность параметров запроса.
func (q *GetLessonQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	if q.LessonID == "" {
		return errors.New("lesson_id is required")
	}
	return nil
}

// GetLessonResult содержит урок с телом и персональным прогрессом.
type GetLessonResult struct {
	Lesson LessonDetailDTO `json:"lesson"`
}

// GetLessonHandler обрабатывает запрос одного урока.
type GetLessonHandler struct {
	lessons     catalog.LessonRepository
	profiles    profile.Repository
	progression progression.Repository
}

// NewGetLessonHandler создаёт новый обработчик запроса урока.
func NewGetLessonHandler(
	lessons catalog.LessonRepository,
	profiles profile.Repository,
	progressionRepo progression.Repository,
) *GetLessonHandler {
	return &GetLessonHandler{
		lessons:     lessons,
		profiles:    profiles,
		progression: progressionRepo,
	}
}

// Handle выполняет запрос одного урока.
// Тело урока выше тарифа не отдаётся: Locked-урок приходит без Content.
func (h *GetLessonHandler) Handle(ctx context.Context, query GetLessonQuery) (*GetLessonResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLesson", shared.ErrValidation, err.Error(), err)
	}

	p, err := h.profiles.GetByID(ctx, query.ProfileID)
	if err != nil {
		return nil, err
	}

	lesson, err := h.lessons.GetByID(ctx, query.LessonID)
	if err != nil {
		return nil, err
	}

	record, err := h.progression.GetLessonProgress(ctx, query.ProfileID, query.LessonID)
	if err != nil {
		return nil, shared.WrapError("query", "GetLesson", shared.ErrServiceUnavailable, "failed to load progress", err)
	}

	detail := LessonDetailDTO{LessonDTO: toLessonDTO(lesson, record, p.Plan)}
	if !detail.Locked {
		detail.Content = lesson.Content
	}

	return &GetLessonResult{Lesson: detail}, nil
}

// toLessonDTO объединяет урок каталога с персональной записью прогресса.
func toLessonDTO(lesson *catalog.Lesson, record *progression.LessonProgress, plan shared.Plan) LessonDTO {
	dto := LessonDTO{
		ID:          lesson.ID,
		Title:       lesson.Title,
		Description: lesson.Description,
		Category:    lesson.Category,
		Difficulty:  string(lesson.Difficulty),
		OrderIndex:  lesson.OrderIndex,
		CoinsReward: lesson.CoinsReward,
		XPReward:    lesson.XPReward,
		MinPlan:     lesson.MinPlan,
		Locked:      !plan.AtLeast(shared.Plan(lesson.MinPlan)),
	}

	if record != nil {
		dto.Progress = record.Progress
		dto.Completed = record.Completed
		dto.Score = record.Score
		if !record.CompletedAt.IsZero() {
			completedAt := record.CompletedAt
			dto.CompletedAt = &completedAt
		}
	}

	return dto
}
