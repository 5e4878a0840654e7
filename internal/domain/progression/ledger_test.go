package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestProfile(t *testing.T, coins, xp, level int) *profile.Profile {
	t.Helper()
	p, err := profile.NewProfile(profile.NewProfileParams{
		ID:           "6f1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d",
		Email:        shared.Email("user@example.com"),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		DisplayName:  "Test User",
	})
	assert.NoError(t, err)
	assert.NoError(t, p.Credit(coins, xp))
	if level > 1 {
		assert.NoError(t, p.SetLevel(shared.Level(level)))
	}
	return p
}

func newTestLesson(t *testing.T, coins, xp int) *catalog.Lesson {
	t.Helper()
	l, err := catalog.NewLesson(catalog.NewLessonParams{
		ID:          "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		Title:       "Что такое бюджет",
		Category:    "budgeting",
		Difficulty:  catalog.DifficultyBeginner,
		CoinsReward: coins,
		XPReward:    xp,
	})
	assert.NoError(t, err)
	return l
}

func newTestMission(t *testing.T, target, coins, xp int) *catalog.Mission {
	t.Helper()
	m, err := catalog.NewMission(catalog.NewMissionParams{
		ID:          "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e",
		Title:       "Заработай монеты",
		Type:        catalog.MissionEarnCoins,
		TargetValue: target,
		CoinsReward: coins,
		XPReward:    xp,
	})
	assert.NoError(t, err)
	return m
}

func newTestItem(t *testing.T, cost int) *catalog.StoreItem {
	t.Helper()
	i, err := catalog.NewStoreItem(catalog.NewStoreItemParams{
		ID:        "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f",
		Name:      "Золотой аватар",
		Category:  "avatar",
		CostCoins: cost,
		Stock:     catalog.StockUnlimited,
	})
	assert.NoError(t, err)
	return i
}

// ──────────────────────────────────────────────────────────────────────────────
// CompleteLesson
// ──────────────────────────────────────────────────────────────────────────────

func TestCompleteLesson_FirstTime(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 0)

	// Записи прогресса ещё нет
	out, err := ledger.CompleteLesson(p, lesson, nil, testNow)
	assert.NoError(t, err)

	assert.True(t, out.RewardApplied)
	assert.Equal(t, 100, out.Progress.Progress)
	assert.True(t, out.Progress.Completed)
	assert.Equal(t, testNow, out.Progress.CompletedAt)
	assert.Equal(t, shared.Coins(50), out.Profile.TotalCoins)

	// Входной профиль не мутирован
	assert.Equal(t, shared.Coins(0), p.TotalCoins)
}

func TestCompleteLesson_Idempotent(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 25)

	first, err := ledger.CompleteLesson(p, lesson, nil, testNow)
	assert.NoError(t, err)

	// Повторное завершение от состояния после первого вызова
	second, err := ledger.CompleteLesson(first.Profile, lesson, first.Progress, testNow.Add(time.Hour))
	assert.NoError(t, err)

	assert.False(t, second.RewardApplied)
	assert.Equal(t, first.Profile.TotalCoins, second.Profile.TotalCoins)
	assert.Equal(t, first.Profile.ExperiencePoints, second.Profile.ExperiencePoints)
	assert.True(t, second.Progress.Completed)
}

func TestCompleteLesson_AwardsXP(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 10, 5, 1)
	lesson := newTestLesson(t, 50, 50)

	out, err := ledger.CompleteLesson(p, lesson, nil, testNow)
	assert.NoError(t, err)

	assert.Equal(t, shared.Coins(60), out.Profile.TotalCoins)
	assert.Equal(t, shared.XP(55), out.Profile.ExperiencePoints)
}

func TestCompleteLesson_ExtendsStreak(t *testing.T) {
	ledger := NewLedger(profile.CalendarDayPolicy{})
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 0)

	out, err := ledger.CompleteLesson(p, lesson, nil, testNow)
	assert.NoError(t, err)

	assert.True(t, out.Streak.Extended)
	assert.Equal(t, 1, out.Profile.CurrentStreak)
	assert.Equal(t, 1, out.Profile.LongestStreak)
}

// ──────────────────────────────────────────────────────────────────────────────
// AdvanceLessonProgress
// ──────────────────────────────────────────────────────────────────────────────

func TestAdvanceLessonProgress_Monotone(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 0)

	cases := []struct {
		start     int
		increment int
		want      int
	}{
		{0, 10, 10},
		{10, 40, 50},
		{50, 49, 99},
		{99, 1, 100},
		{80, 25, 100},
		{0, 150, 100},
	}

	for _, tc := range cases {
		existing := NewLessonProgress(p.ID, lesson.ID, testNow)
		existing.Progress = tc.start

		out, err := ledger.AdvanceLessonProgress(p, lesson, existing, tc.increment, testNow)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, out.Progress.Progress)
		assert.GreaterOrEqual(t, out.Progress.Progress, tc.start)
	}
}

func TestAdvanceLessonProgress_RejectsNonPositiveIncrement(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 0)

	_, err := ledger.AdvanceLessonProgress(p, lesson, nil, 0, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = ledger.AdvanceLessonProgress(p, lesson, nil, -5, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAdvanceLessonProgress_ReachingCapCompletesAndRewardsOnce(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 25)

	existing := NewLessonProgress(p.ID, lesson.ID, testNow)
	existing.Progress = 80

	out, err := ledger.AdvanceLessonProgress(p, lesson, existing, 25, testNow)
	assert.NoError(t, err)

	assert.Equal(t, 100, out.Progress.Progress)
	assert.True(t, out.Progress.Completed)
	assert.True(t, out.RewardApplied)
	assert.Equal(t, shared.Coins(50), out.Profile.TotalCoins)
	assert.Equal(t, shared.XP(25), out.Profile.ExperiencePoints)

	// Дальнейшее продвижение завершённого урока ничего не меняет
	again, err := ledger.AdvanceLessonProgress(out.Profile, lesson, out.Progress, 10, testNow.Add(time.Hour))
	assert.NoError(t, err)
	assert.False(t, again.RewardApplied)
	assert.Equal(t, shared.Coins(50), again.Profile.TotalCoins)
	assert.Equal(t, 100, again.Progress.Progress)
}

func TestAdvanceLessonProgress_PartialNoReward(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	lesson := newTestLesson(t, 50, 0)

	out, err := ledger.AdvanceLessonProgress(p, lesson, nil, 30, testNow)
	assert.NoError(t, err)

	assert.Equal(t, 30, out.Progress.Progress)
	assert.False(t, out.Progress.Completed)
	assert.False(t, out.RewardApplied)
	assert.Equal(t, shared.Coins(0), out.Profile.TotalCoins)
}

// ──────────────────────────────────────────────────────────────────────────────
// ClaimMissionReward
// ──────────────────────────────────────────────────────────────────────────────

func TestClaimMissionReward_Success(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 10, 0, 1)
	mission := newTestMission(t, 100, 25, 15)

	um := NewMissionProgress(p.ID, mission.ID, testNow, testNow)
	um.Progress = 120

	out, err := ledger.ClaimMissionReward(p, mission, um, testNow)
	assert.NoError(t, err)

	assert.True(t, out.Progress.Completed)
	assert.Equal(t, testNow, out.Progress.CompletedAt)
	assert.Equal(t, shared.Coins(35), out.Profile.TotalCoins)
	assert.Equal(t, shared.XP(15), out.Profile.ExperiencePoints)
}

func TestClaimMissionReward_IneligibleWhenBelowTarget(t *testing.T) {
	ledger := NewLedger(nil)
	// Сценарий: 65 монет, миссия с целью 100 и прогрессом 65
	p := newTestProfile(t, 65, 0, 1)
	mission := newTestMission(t, 100, 25, 0)

	um := NewMissionProgress(p.ID, mission.ID, testNow, testNow)
	um.Progress = 65

	out, err := ledger.ClaimMissionReward(p, mission, um, testNow)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, shared.ErrIneligibleClaim)

	// Состояние не изменилось
	assert.Equal(t, shared.Coins(65), p.TotalCoins)
	assert.Equal(t, shared.XP(0), p.ExperiencePoints)
	assert.False(t, um.Completed)
}

func TestClaimMissionReward_IneligibleWhenAlreadyClaimed(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	mission := newTestMission(t, 50, 25, 0)

	um := NewMissionProgress(p.ID, mission.ID, testNow, testNow)
	um.Progress = 80
	um.Completed = true

	_, err := ledger.ClaimMissionReward(p, mission, um, testNow)
	assert.ErrorIs(t, err, shared.ErrIneligibleClaim)
	assert.Equal(t, shared.Coins(0), p.TotalCoins)
}

func TestClaimMissionReward_MissingRecord(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	mission := newTestMission(t, 50, 25, 0)

	_, err := ledger.ClaimMissionReward(p, mission, nil, testNow)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClaimMissionReward_BoundaryProgressEqualsTarget(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	mission := newTestMission(t, 100, 25, 0)

	um := NewMissionProgress(p.ID, mission.ID, testNow, testNow)
	um.Progress = 100

	out, err := ledger.ClaimMissionReward(p, mission, um, testNow)
	assert.NoError(t, err)
	assert.Equal(t, shared.Coins(25), out.Profile.TotalCoins)
}

// ──────────────────────────────────────────────────────────────────────────────
// PurchaseStoreItem
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchaseStoreItem_Success(t *testing.T) {
	ledger := NewLedger(nil)
	// Сценарий: баланс 500, товар за 500 → баланс 0, одна покупка
	p := newTestProfile(t, 500, 0, 1)
	item := newTestItem(t, 500)

	out, err := ledger.PurchaseStoreItem(p, item, "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f80", testNow)
	assert.NoError(t, err)

	assert.Equal(t, shared.Coins(0), out.Profile.TotalCoins)
	assert.Equal(t, 500, out.CoinsSpent)
	assert.Equal(t, item.ID, out.Purchase.ItemID)
	assert.Equal(t, p.ID, out.Purchase.ProfileID)
	assert.False(t, out.Purchase.Redeemed)
	assert.Equal(t, testNow, out.Purchase.PurchasedAt)
}

func TestPurchaseStoreItem_InsufficientFunds(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 499, 0, 1)
	item := newTestItem(t, 500)

	out, err := ledger.PurchaseStoreItem(p, item, "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f80", testNow)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)

	// Баланс после неудачной попытки равен балансу до неё
	assert.Equal(t, shared.Coins(499), p.TotalCoins)
}

func TestPurchaseStoreItem_FreeItem(t *testing.T) {
	ledger := NewLedger(nil)
	p := newTestProfile(t, 0, 0, 1)
	item := newTestItem(t, 0)

	out, err := ledger.PurchaseStoreItem(p, item, "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f80", testNow)
	assert.NoError(t, err)
	assert.Equal(t, shared.Coins(0), out.Profile.TotalCoins)
}

// ──────────────────────────────────────────────────────────────────────────────
// LevelProgress
// ──────────────────────────────────────────────────────────────────────────────

func TestLevelProgress_DerivedRatio(t *testing.T) {
	ledger := NewLedger(nil)

	// Уровень 1, 50 XP → 50 / 100
	p := newTestProfile(t, 0, 50, 1)
	assert.InDelta(t, 0.5, ledger.LevelProgress(p), 0.001)

	// Уровень 3, 150 XP → 150 / 300
	p = newTestProfile(t, 0, 150, 3)
	assert.InDelta(t, 0.5, ledger.LevelProgress(p), 0.001)

	// Пересечение порога не меняет уровень
	p = newTestProfile(t, 0, 250, 1)
	assert.InDelta(t, 1.0, ledger.LevelProgress(p), 0.001)
	assert.Equal(t, shared.Level(1), p.Level)
}
