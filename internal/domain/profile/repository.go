package profile

import (
	"context"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для профилей.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт новый профиль.
	// Возвращает ErrProfileAlreadyExists, если email уже занят.
	Create(ctx context.Context, profile *Profile) error

	// GetByID возвращает профиль по внутреннему ID.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// GetByEmail возвращает профиль по email.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	GetByEmail(ctx context.Context, email shared.Email) (*Profile, error)

	// Update обновляет профиль с проверкой версии.
	// Возвращает shared.ErrOptimisticLock, если запись была изменена
	// конкурентно (версия в базе не совпала с profile.Version).
	// При успехе инкрементирует profile.Version.
	Update(ctx context.Context, profile *Profile) error

	// Delete удаляет профиль.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	Delete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll возвращает все профили с пагинацией.
	GetAll(ctx context.Context, opts ListOptions) ([]*Profile, error)

	// GetByIDs возвращает профили по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*Profile, error)

	// Count возвращает общее количество профилей.
	Count(ctx context.Context) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Leaderboard Queries
	// ─────────────────────────────────────────────────────────────────────────

	// TopByCoins возвращает профили с наибольшим балансом монет.
	TopByCoins(ctx context.Context, limit int) ([]*Profile, error)

	// TopByStreak возвращает профили с самой длинной текущей серией.
	TopByStreak(ctx context.Context, limit int) ([]*Profile, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Streak Maintenance
	// ─────────────────────────────────────────────────────────────────────────

	// FindWithBrokenStreaks находит профили, у которых серия сломана
	// (последняя активность раньше указанной даты), но CurrentStreak > 0.
	FindWithBrokenStreaks(ctx context.Context, before time.Time) ([]*Profile, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет существование профиля по ID.
	Exists(ctx context.Context, id string) (bool, error)

	// ExistsByEmail проверяет существование профиля по email.
	ExistsByEmail(ctx context.Context, email shared.Email) (bool, error)
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "total_coins",
		SortDesc: true,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort устанавливает сортировку.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Для кеширования часто запрашиваемых профилей (обычно Redis).
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет операции кеширования профилей.
type Cache interface {
	// Get получает профиль из кеша.
	Get(ctx context.Context, profileID string) (*Profile, error)

	// Set сохраняет профиль в кеш.
	Set(ctx context.Context, profile *Profile, ttl time.Duration) error

	// Delete удаляет профиль из кеша.
	Delete(ctx context.Context, profileID string) error

	// Invalidate инвалидирует все записи профиля в кеше.
	Invalidate(ctx context.Context, profileID string) error
}
