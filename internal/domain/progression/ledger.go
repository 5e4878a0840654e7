package progression

import (
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION LEDGER
// Чистые операции начисления. Леджер не пишет в хранилище: он принимает
// снимок состояния и возвращает новое состояние. Профиль на входе не
// мутируется - все результаты содержат копию.
// ══════════════════════════════════════════════════════════════════════════════

// Ledger вычисляет следующее состояние профиля и записей прогресса.
type Ledger struct {
	streakPolicy profile.StreakPolicy
}

// NewLedger создаёт леджер с указанной политикой серий.
func NewLedger(policy profile.StreakPolicy) *Ledger {
	if policy == nil {
		policy = profile.CalendarDayPolicy{}
	}
	return &Ledger{streakPolicy: policy}
}

// StreakPolicy возвращает активную политику серий.
func (l *Ledger) StreakPolicy() profile.StreakPolicy {
	return l.streakPolicy
}

// ──────────────────────────────────────────────────────────────────────────────
// Результаты операций
// ──────────────────────────────────────────────────────────────────────────────

// LessonOutcome - результат операции над уроком.
type LessonOutcome struct {
	// Profile - обновлённая копия профиля для записи.
	Profile *profile.Profile

	// Progress - обновлённая запись прогресса для записи (upsert).
	Progress *LessonProgress

	// RewardApplied - награда начислена в этой операции.
	RewardApplied bool

	// CoinsEarned, XPEarned - начислено в этой операции.
	CoinsEarned int
	XPEarned    int

	// Streak - изменение серии активных дней.
	Streak profile.StreakChange
}

// MissionOutcome - результат получения награды за миссию.
type MissionOutcome struct {
	Profile     *profile.Profile
	Progress    *MissionProgress
	CoinsEarned int
	XPEarned    int
	Streak      profile.StreakChange
}

// PurchaseOutcome - результат покупки товара.
type PurchaseOutcome struct {
	Profile    *profile.Profile
	Purchase   *Purchase
	CoinsSpent int
}

// ──────────────────────────────────────────────────────────────────────────────
// CompleteLesson
// ──────────────────────────────────────────────────────────────────────────────

// CompleteLesson завершает урок: прогресс становится 100, выставляется
// флаг завершения и начисляется награда урока.
//
// Операция идемпотентна: если existing.Completed уже true, состояние
// возвращается без изменений и награда не начисляется повторно.
// Отсутствующая запись прогресса трактуется как нулевой прогресс.
func (l *Ledger) CompleteLesson(p *profile.Profile, lesson *catalog.Lesson, existing *LessonProgress, now time.Time) (*LessonOutcome, error) {
	if p == nil || lesson == nil {
		return nil, shared.ErrInvalidInput
	}

	// Повторное завершение - no-op
	if existing != nil && existing.Completed {
		return &LessonOutcome{
			Profile:       p.Clone(),
			Progress:      existing.Clone(),
			RewardApplied: false,
		}, nil
	}

	progress := existing.Clone()
	if progress == nil {
		progress = NewLessonProgress(p.ID, lesson.ID, now)
	}

	progress.Progress = 100
	progress.Completed = true
	progress.CompletedAt = now
	progress.UpdatedAt = now

	updated := p.Clone()
	if err := updated.Credit(lesson.CoinsReward, lesson.XPReward); err != nil {
		return nil, err
	}
	streak := updated.RecordActivity(now, l.streakPolicy)

	return &LessonOutcome{
		Profile:       updated,
		Progress:      progress,
		RewardApplied: true,
		CoinsEarned:   lesson.CoinsReward,
		XPEarned:      lesson.XPReward,
		Streak:        streak,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// AdvanceLessonProgress
// ──────────────────────────────────────────────────────────────────────────────

// AdvanceLessonProgress продвигает частичный прогресс урока.
// Новый прогресс = min(старый + increment, 100); прогресс монотонно
// не убывает. Достижение 100 завершает урок и начисляет награду -
// ровно один раз, под защитой прежнего флага завершения.
func (l *Ledger) AdvanceLessonProgress(p *profile.Profile, lesson *catalog.Lesson, existing *LessonProgress, increment int, now time.Time) (*LessonOutcome, error) {
	if p == nil || lesson == nil {
		return nil, shared.ErrInvalidInput
	}
	if increment <= 0 {
		return nil, shared.NewDomainError("progression", "AdvanceLessonProgress",
			shared.ErrInvalidInput, "increment must be positive")
	}

	// Завершённый урок дальше не двигается
	if existing != nil && existing.Completed {
		return &LessonOutcome{
			Profile:       p.Clone(),
			Progress:      existing.Clone(),
			RewardApplied: false,
		}, nil
	}

	progress := existing.Clone()
	if progress == nil {
		progress = NewLessonProgress(p.ID, lesson.ID, now)
	}

	newValue := progress.Progress + increment
	if newValue > 100 {
		newValue = 100
	}
	progress.Progress = newValue
	progress.UpdatedAt = now

	updated := p.Clone()
	outcome := &LessonOutcome{
		Profile:  updated,
		Progress: progress,
	}

	// Достижение 100 - терминальный путь, эквивалентный CompleteLesson
	if newValue >= 100 {
		progress.Completed = true
		progress.CompletedAt = now

		if err := updated.Credit(lesson.CoinsReward, lesson.XPReward); err != nil {
			return nil, err
		}
		outcome.RewardApplied = true
		outcome.CoinsEarned = lesson.CoinsReward
		outcome.XPEarned = lesson.XPReward
	}

	outcome.Streak = updated.RecordActivity(now, l.streakPolicy)

	return outcome, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// ClaimMissionReward
// ──────────────────────────────────────────────────────────────────────────────

// ClaimMissionReward выдаёт награду за выполненную ежедневную миссию.
//
// Предусловия: запись прогресса существует за текущий день,
// progress >= mission.TargetValue и награда ещё не получена.
// При нарушении возвращается ошибка вида shared.ErrIneligibleClaim
// и состояние не меняется.
func (l *Ledger) ClaimMissionReward(p *profile.Profile, mission *catalog.Mission, userMission *MissionProgress, now time.Time) (*MissionOutcome, error) {
	if p == nil || mission == nil {
		return nil, shared.ErrInvalidInput
	}
	if userMission == nil {
		return nil, shared.ErrMissionNotAssigned
	}
	if userMission.Completed {
		return nil, shared.ErrMissionAlreadyClaimed
	}
	if userMission.Progress < mission.TargetValue {
		return nil, shared.ErrMissionIncomplete
	}

	progress := userMission.Clone()
	progress.Completed = true
	progress.CompletedAt = now
	progress.UpdatedAt = now

	updated := p.Clone()
	if err := updated.Credit(mission.CoinsReward, mission.XPReward); err != nil {
		return nil, err
	}
	streak := updated.RecordActivity(now, l.streakPolicy)

	return &MissionOutcome{
		Profile:     updated,
		Progress:    progress,
		CoinsEarned: mission.CoinsReward,
		XPEarned:    mission.XPReward,
		Streak:      streak,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PurchaseStoreItem
// ──────────────────────────────────────────────────────────────────────────────

// PurchaseStoreItem покупает товар магазина наград.
//
// Предусловие: баланс профиля покрывает стоимость. При нехватке
// возвращается ошибка вида shared.ErrInsufficientFunds и состояние
// не меняется. Остаток товара информационный и здесь не списывается.
func (l *Ledger) PurchaseStoreItem(p *profile.Profile, item *catalog.StoreItem, purchaseID string, now time.Time) (*PurchaseOutcome, error) {
	if p == nil || item == nil {
		return nil, shared.ErrInvalidInput
	}
	if purchaseID == "" {
		return nil, shared.NewDomainError("progression", "PurchaseStoreItem",
			shared.ErrInvalidInput, "purchase id is required")
	}

	if !p.TotalCoins.CanAfford(item.CostCoins) {
		return nil, shared.ErrNotEnoughCoins
	}

	updated := p.Clone()
	if err := updated.SpendCoins(item.CostCoins); err != nil {
		return nil, err
	}

	purchase := &Purchase{
		ID:          purchaseID,
		ProfileID:   p.ID,
		ItemID:      item.ID,
		CoinsSpent:  item.CostCoins,
		Redeemed:    false,
		PurchasedAt: now,
	}

	return &PurchaseOutcome{
		Profile:    updated,
		Purchase:   purchase,
		CoinsSpent: item.CostCoins,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// LevelProgress
// ──────────────────────────────────────────────────────────────────────────────

// LevelProgress возвращает производное отображаемое значение прогресса
// уровня: experience_points / (level * 100), ограниченное диапазоном [0, 1].
// Уровень при пересечении порога не меняется.
func (l *Ledger) LevelProgress(p *profile.Profile) float64 {
	if p == nil {
		return 0
	}
	return p.LevelProgress()
}
