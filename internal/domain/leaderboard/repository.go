package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт для хранилища рейтингов.
// Реализация живёт в infrastructure/persistence/redis (sorted sets)
// со снапшотами, которые перестраивает фоновый воркер.
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// Снапшоты
	// ──────────────────────────────────────────────────────────────────────────

	// SaveSnapshot сохраняет снапшот рейтинга, смещая текущий в previous.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetSnapshot возвращает текущий снапшот рейтинга.
	// Возвращает ErrSnapshotNotFound, если снапшот ещё не построен.
	GetSnapshot(ctx context.Context, board Board) (*Snapshot, error)

	// GetPreviousSnapshot возвращает предыдущий снапшот для расчёта
	// изменения позиций. Возвращает nil, nil если предыдущего нет.
	GetPreviousSnapshot(ctx context.Context, board Board) (*Snapshot, error)

	// ──────────────────────────────────────────────────────────────────────────
	// Живые показатели (sorted set)
	// ──────────────────────────────────────────────────────────────────────────

	// UpdateScore обновляет показатель пользователя в живом рейтинге.
	// Вызывается обработчиками событий при изменении монет или серии.
	UpdateScore(ctx context.Context, board Board, profileID string, score Score) error

	// RemoveProfile убирает пользователя из всех рейтингов
	// (удаление аккаунта).
	RemoveProfile(ctx context.Context, profileID string) error

	// GetRank возвращает текущий живой ранг пользователя.
	// Возвращает 0, если пользователь не участвует в рейтинге.
	GetRank(ctx context.Context, board Board, profileID string) (Rank, error)

	// GetTop возвращает топ-N живого рейтинга.
	GetTop(ctx context.Context, board Board, limit int) ([]*Entry, error)

	// GetTotalCount возвращает количество участников рейтинга.
	GetTotalCount(ctx context.Context, board Board) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUPPORTING TYPES
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRankView агрегирует позиции пользователя во всех рейтингах
// для экрана профиля.
type ProfileRankView struct {
	ProfileID  string
	CoinsRank  Rank
	CoinsTotal int
	StreakRank Rank
	StreakDays int
	FetchedAt  time.Time
}

// BoardView - готовый ответ для HTTP-слоя: топ-10 плюс позиция
// текущего пользователя, даже если он вне топа.
type BoardView struct {
	Board         Board
	Entries       []*Entry
	Viewer        *Entry
	ViewerRank    Rank
	TotalProfiles int
	GeneratedAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// QueryOptions содержит опции для запросов к рейтингу.
type QueryOptions struct {
	// Board - вид рейтинга.
	Board Board

	// Page - номер страницы (начиная с 1).
	Page int

	// PageSize - размер страницы.
	PageSize int
}

// DefaultQueryOptions возвращает опции по умолчанию: топ-10 по монетам.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Board:    BoardCoins,
		Page:     1,
		PageSize: 10,
	}
}

// WithBoard устанавливает вид рейтинга.
func (o QueryOptions) WithBoard(board Board) QueryOptions {
	o.Board = board
	return o
}

// WithPage устанавливает номер страницы.
func (o QueryOptions) WithPage(page int) QueryOptions {
	if page < 1 {
		page = 1
	}
	o.Page = page
	return o
}

// WithPageSize устанавливает размер страницы.
func (o QueryOptions) WithPageSize(size int) QueryOptions {
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	o.PageSize = size
	return o
}

// Offset возвращает смещение для выборки.
func (o QueryOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// Limit возвращает лимит для выборки.
func (o QueryOptions) Limit() int {
	return o.PageSize
}
