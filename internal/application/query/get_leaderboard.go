// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Отдаёт страницу рейтинга из готового снапшота. Снапшоты строит
// фоновый воркер; запрос их не пересчитывает. Если запрошен ViewerID,
// позиция зрителя включается даже когда он вне страницы.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Board - вид рейтинга: "coins" или "streak".
	Board string

	// Page - номер страницы (начиная с 1).
	Page int

	// PageSize - размер страницы (по умолчанию 10, максимум 100).
	PageSize int

	// ViewerID - ID смотрящего пользователя (пустая строка = аноним).
	ViewerID string
}

// Validate проверяет корректность параметров и нормализует пагинацию.
func (q *GetLeaderboardQuery) Validate() error {
	if _, err := leaderboard.ParseBoard(q.Board); err != nil {
		return err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи рейтинга.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// ProfileID - внутренний ID пользователя.
	ProfileID string `json:"profile_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// SelectedAvatar - выбранный аватар.
	SelectedAvatar string `json:"selected_avatar,omitempty"`

	// Score - показатель рейтинга (монеты или дни серии).
	Score int `json:"score"`

	// Level - уровень пользователя.
	Level int `json:"level"`

	// RankChange - изменение позиции (+ вверх, - вниз, 0 стабильно).
	RankChange int `json:"rank_change"`

	// RankDirection - направление изменения: "up", "down", "stable", "new".
	RankDirection string `json:"rank_direction"`
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	// Board - вид рейтинга.
	Board string `json:"board"`

	// Entries - записи страницы.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// Viewer - позиция смотрящего (nil, если аноним или вне рейтинга).
	Viewer *LeaderboardEntryDTO `json:"viewer,omitempty"`

	// TotalCount - общее количество участников.
	TotalCount int `json:"total_count"`

	// AverageScore - средний показатель по рейтингу.
	AverageScore int `json:"average_score"`

	// Page - текущая страница (1-based).
	Page int `json:"page"`

	// PageSize - размер страницы.
	PageSize int `json:"page_size"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"has_more"`

	// GeneratedAt - время построения снапшота.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	store leaderboard.Repository
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса рейтинга.
func NewGetLeaderboardHandler(store leaderboard.Repository) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{store: store}
}

// Handle выполняет запрос рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	board := leaderboard.Board(query.Board)

	snapshot, err := h.store.GetSnapshot(ctx, board)
	if err != nil {
		if errors.Is(err, leaderboard.ErrSnapshotNotFound) {
			// Снапшот ещё не построен - пустой рейтинг, не ошибка.
			return &GetLeaderboardResult{
				Board:       query.Board,
				Entries:     []LeaderboardEntryDTO{},
				Page:        query.Page,
				PageSize:    query.PageSize,
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to load snapshot", err)
	}

	previous, err := h.store.GetPreviousSnapshot(ctx, board)
	if err != nil {
		previous = nil
	}

	pageEntries := snapshot.Page(query.Page, query.PageSize)

	dtos := make([]LeaderboardEntryDTO, len(pageEntries))
	for i, e := range pageEntries {
		dtos[i] = toEntryDTO(e, snapshot.DirectionFor(e.ProfileID, previous))
	}

	result := &GetLeaderboardResult{
		Board:        query.Board,
		Entries:      dtos,
		TotalCount:   snapshot.TotalProfiles,
		AverageScore: int(snapshot.AverageScore),
		Page:         query.Page,
		PageSize:     query.PageSize,
		HasMore:      query.Page*query.PageSize < snapshot.TotalProfiles,
		GeneratedAt:  snapshot.GeneratedAt,
	}

	if query.ViewerID != "" {
		if viewer := snapshot.GetByID(query.ViewerID); viewer != nil {
			dto := toEntryDTO(viewer, snapshot.DirectionFor(viewer.ProfileID, previous))
			result.Viewer = &dto
		}
	}

	return result, nil
}

// toEntryDTO конвертирует доменную запись в DTO.
func toEntryDTO(e *leaderboard.Entry, direction leaderboard.RankDirection) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Rank:           int(e.Rank),
		ProfileID:      e.ProfileID,
		DisplayName:    e.DisplayName,
		SelectedAvatar: e.SelectedAvatar,
		Score:          int(e.Score),
		Level:          e.Level,
		RankChange:     int(e.RankChange),
		RankDirection:  string(direction),
	}
}
