package progression

import (
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-ACTOR PROGRESS RECORDS
// Персональные записи прогресса. Каждая запись принадлежит ровно одному
// пользователю и ссылается ровно на одну сущность каталога.
// ══════════════════════════════════════════════════════════════════════════════

// LessonProgress - прогресс пользователя по уроку.
// Создаётся при первом взаимодействии с уроком, далее только обновляется,
// никогда не удаляется.
type LessonProgress struct {
	// ProfileID - владелец записи.
	ProfileID string

	// LessonID - урок из каталога.
	LessonID string

	// Progress - прогресс прохождения, 0-100.
	Progress int

	// Completed - урок завершён. После установки не сбрасывается.
	Completed bool

	// CompletedAt - время завершения (нулевое, если не завершён).
	CompletedAt time.Time

	// Score - необязательный результат квиза (0, если не применимо).
	Score int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewLessonProgress создаёт пустую запись прогресса по уроку.
func NewLessonProgress(profileID, lessonID string, now time.Time) *LessonProgress {
	return &LessonProgress{
		ProfileID: profileID,
		LessonID:  lessonID,
		Progress:  0,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone создаёт копию записи.
func (lp *LessonProgress) Clone() *LessonProgress {
	if lp == nil {
		return nil
	}
	clone := *lp
	return &clone
}

// MissionProgress - прогресс пользователя по миссии за один календарный день.
// Ключ записи: (пользователь, миссия, день). Прогресс прошлых дней не
// переносится на сегодня.
type MissionProgress struct {
	// ProfileID - владелец записи.
	ProfileID string

	// MissionID - миссия из каталога.
	MissionID string

	// Day - календарный день UTC (начало дня).
	Day time.Time

	// Progress - накопленный прогресс к цели миссии.
	Progress int

	// Completed - награда получена. После установки не сбрасывается.
	Completed bool

	// CompletedAt - время получения награды (нулевое, если не получена).
	CompletedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewMissionProgress создаёт пустую запись прогресса по миссии на день day.
func NewMissionProgress(profileID, missionID string, day, now time.Time) *MissionProgress {
	d := day.UTC()
	return &MissionProgress{
		ProfileID: profileID,
		MissionID: missionID,
		Day:       time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Progress:  0,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddProgress увеличивает накопленный прогресс миссии.
func (mp *MissionProgress) AddProgress(delta int, now time.Time) error {
	if delta <= 0 {
		return errors.New("mission progress delta must be positive")
	}
	mp.Progress += delta
	mp.UpdatedAt = now
	return nil
}

// Clone создаёт копию записи.
func (mp *MissionProgress) Clone() *MissionProgress {
	if mp == nil {
		return nil
	}
	clone := *mp
	return &clone
}

// Purchase - покупка товара в магазине наград.
type Purchase struct {
	// ID - уникальный идентификатор покупки (UUID).
	ID string

	// ProfileID - покупатель.
	ProfileID string

	// ItemID - товар из каталога.
	ItemID string

	// CoinsSpent - списано монет в момент покупки.
	CoinsSpent int

	// Redeemed - покупка погашена (выдана). Отслеживается отдельно
	// от факта покупки.
	Redeemed bool

	// RedeemedAt - время погашения (нулевое, если не погашена).
	RedeemedAt time.Time

	// PurchasedAt - время покупки.
	PurchasedAt time.Time
}

// Redeem помечает покупку погашенной.
// Возвращает ошибку при повторном погашении.
func (p *Purchase) Redeem(now time.Time) error {
	if p.Redeemed {
		return shared.ErrAlreadyRedeemed
	}
	p.Redeemed = true
	p.RedeemedAt = now
	return nil
}

// UnlockedAchievement - факт разблокировки достижения пользователем.
// Разблокировка одностороння и перманентна: запись никогда не удаляется.
type UnlockedAchievement struct {
	// ProfileID - владелец.
	ProfileID string

	// AchievementID - достижение из каталога.
	AchievementID string

	// UnlockedAt - время разблокировки.
	UnlockedAt time.Time
}

// DailyStats - снимок показателей пользователя за один день.
// Заполняется фоновой задачей для графиков истории.
type DailyStats struct {
	// ProfileID - владелец.
	ProfileID string

	// Day - календарный день UTC (начало дня).
	Day time.Time

	// CoinsEarned - заработано монет за день.
	CoinsEarned int

	// XPEarned - заработано опыта за день.
	XPEarned int

	// LessonsCompleted - завершено уроков за день.
	LessonsCompleted int

	// MissionsClaimed - получено наград за миссии за день.
	MissionsClaimed int

	// StreakAtEnd - серия на конец дня.
	StreakAtEnd int

	// CreatedAt - время создания снимка.
	CreatedAt time.Time
}
