package catalog

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем каталога.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository определяет операции для работы с уроками.
type LessonRepository interface {
	// Create создаёт урок (административная операция).
	Create(ctx context.Context, lesson *Lesson) error

	// GetByID возвращает урок по ID.
	// Возвращает shared.ErrLessonNotFound, если урок не найден.
	GetByID(ctx context.Context, id string) (*Lesson, error)

	// List возвращает уроки, отсортированные по категории и order_index.
	List(ctx context.Context) ([]*Lesson, error)

	// ListByCategory возвращает уроки категории в порядке order_index.
	ListByCategory(ctx context.Context, category string) ([]*Lesson, error)

	// Update обновляет урок (административная операция).
	Update(ctx context.Context, lesson *Lesson) error

	// Delete удаляет урок (административная операция).
	Delete(ctx context.Context, id string) error

	// Count возвращает количество уроков.
	Count(ctx context.Context) (int, error)
}

// MissionRepository определяет операции для работы с миссиями.
type MissionRepository interface {
	// Create создаёт миссию (административная операция).
	Create(ctx context.Context, mission *Mission) error

	// GetByID возвращает миссию по ID.
	// Возвращает shared.ErrMissionNotFound, если миссия не найдена.
	GetByID(ctx context.Context, id string) (*Mission, error)

	// ListActive возвращает активные миссии ежедневного набора.
	ListActive(ctx context.Context) ([]*Mission, error)

	// Update обновляет миссию (административная операция).
	Update(ctx context.Context, mission *Mission) error

	// Delete удаляет миссию (административная операция).
	Delete(ctx context.Context, id string) error
}

// AchievementRepository определяет операции для работы с достижениями.
type AchievementRepository interface {
	// Create создаёт достижение (административная операция).
	Create(ctx context.Context, achievement *Achievement) error

	// GetByID возвращает достижение по ID.
	// Возвращает shared.ErrAchievementNotFound, если не найдено.
	GetByID(ctx context.Context, id string) (*Achievement, error)

	// List возвращает все достижения каталога.
	List(ctx context.Context) ([]*Achievement, error)

	// Update обновляет достижение (административная операция).
	Update(ctx context.Context, achievement *Achievement) error

	// Delete удаляет достижение (административная операция).
	Delete(ctx context.Context, id string) error
}

// StoreItemRepository определяет операции для работы с товарами магазина.
type StoreItemRepository interface {
	// Create создаёт товар (административная операция).
	Create(ctx context.Context, item *StoreItem) error

	// GetByID возвращает товар по ID.
	// Возвращает shared.ErrStoreItemNotFound, если товар не найден.
	GetByID(ctx context.Context, id string) (*StoreItem, error)

	// ListActive возвращает товары, доступные для покупки.
	ListActive(ctx context.Context) ([]*StoreItem, error)

	// ListByCategory возвращает активные товары категории.
	ListByCategory(ctx context.Context, category string) ([]*StoreItem, error)

	// Update обновляет товар (в том числе остаток).
	Update(ctx context.Context, item *StoreItem) error

	// Delete удаляет товар (административная операция).
	Delete(ctx context.Context, id string) error
}
