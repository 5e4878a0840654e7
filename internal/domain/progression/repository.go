package progression

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с записями прогресса.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с персональными записями прогресса.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Lesson Progress
	// ─────────────────────────────────────────────────────────────────────────

	// UpsertLessonProgress создаёт или обновляет запись прогресса по уроку.
	// Ключ: (profile_id, lesson_id).
	UpsertLessonProgress(ctx context.Context, progress *LessonProgress) error

	// GetLessonProgress возвращает прогресс по уроку.
	// Возвращает nil, nil если записи нет.
	GetLessonProgress(ctx context.Context, profileID, lessonID string) (*LessonProgress, error)

	// ListLessonProgress возвращает все записи прогресса пользователя.
	ListLessonProgress(ctx context.Context, profileID string) ([]*LessonProgress, error)

	// CountCompletedLessons возвращает количество завершённых уроков.
	CountCompletedLessons(ctx context.Context, profileID string) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Mission Progress
	// ─────────────────────────────────────────────────────────────────────────

	// UpsertMissionProgress создаёт или обновляет запись прогресса по миссии.
	// Ключ: (profile_id, mission_id, day).
	UpsertMissionProgress(ctx context.Context, progress *MissionProgress) error

	// GetMissionProgress возвращает прогресс по миссии за день.
	// Возвращает nil, nil если записи нет.
	GetMissionProgress(ctx context.Context, profileID, missionID string, day time.Time) (*MissionProgress, error)

	// ListMissionProgressForDay возвращает все записи прогресса миссий
	// пользователя за день.
	ListMissionProgressForDay(ctx context.Context, profileID string, day time.Time) ([]*MissionProgress, error)

	// CountClaimedMissions возвращает количество полученных наград за день.
	CountClaimedMissions(ctx context.Context, profileID string, day time.Time) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Purchases
	// ─────────────────────────────────────────────────────────────────────────

	// CreatePurchase сохраняет новую покупку.
	CreatePurchase(ctx context.Context, purchase *Purchase) error

	// GetPurchase возвращает покупку по ID.
	// Возвращает shared.ErrPurchaseNotFound, если покупка не найдена.
	GetPurchase(ctx context.Context, id string) (*Purchase, error)

	// ListPurchases возвращает покупки пользователя (новые первыми).
	ListPurchases(ctx context.Context, profileID string) ([]*Purchase, error)

	// UpdatePurchase обновляет покупку (флаг погашения).
	UpdatePurchase(ctx context.Context, purchase *Purchase) error

	// CountPurchases возвращает количество покупок пользователя.
	CountPurchases(ctx context.Context, profileID string) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Unlocked Achievements
	// ─────────────────────────────────────────────────────────────────────────

	// SaveUnlockedAchievement сохраняет факт разблокировки.
	// Повторная запись той же пары (profile_id, achievement_id) - no-op.
	SaveUnlockedAchievement(ctx context.Context, unlocked *UnlockedAchievement) error

	// ListUnlockedAchievements возвращает достижения пользователя.
	ListUnlockedAchievements(ctx context.Context, profileID string) ([]*UnlockedAchievement, error)

	// HasUnlockedAchievement проверяет наличие разблокировки.
	HasUnlockedAchievement(ctx context.Context, profileID, achievementID string) (bool, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Daily Stats
	// ─────────────────────────────────────────────────────────────────────────

	// UpsertDailyStats сохраняет снимок показателей за день.
	// Ключ: (profile_id, day).
	UpsertDailyStats(ctx context.Context, stats *DailyStats) error

	// GetDailyStatsHistory возвращает снимки за последние days дней
	// (старые первыми).
	GetDailyStatsHistory(ctx context.Context, profileID string, days int) ([]*DailyStats, error)
}
