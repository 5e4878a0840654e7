package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func validParams() NewProfileParams {
	return NewProfileParams{
		ID:           "c3b5a1de-9d13-4a0f-8c11-2f4a1f0b9e77",
		Email:        shared.Email("user@example.com"),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		DisplayName:  "Test User",
	}
}

func TestNewProfile_Defaults(t *testing.T) {
	p, err := NewProfile(validParams())
	assert.NoError(t, err)

	assert.Equal(t, shared.Coins(0), p.TotalCoins)
	assert.Equal(t, shared.XP(0), p.ExperiencePoints)
	assert.Equal(t, shared.MinLevel, p.Level)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Equal(t, 0, p.LongestStreak)
	assert.True(t, p.LastActivityDate.IsZero())
	assert.Equal(t, shared.PlanFree, p.Plan)
	assert.Equal(t, RoleUser, p.Role)
	assert.Equal(t, 1, p.Version)
}

func TestNewProfile_Validation(t *testing.T) {
	params := validParams()
	params.Email = "not-an-email"
	_, err := NewProfile(params)
	assert.Error(t, err)

	params = validParams()
	params.DisplayName = "   "
	_, err = NewProfile(params)
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	params = validParams()
	params.PasswordHash = ""
	_, err = NewProfile(params)
	assert.Error(t, err)
}

func TestCredit_AddsCoinsAndXP(t *testing.T) {
	p, _ := NewProfile(validParams())

	err := p.Credit(50, 50)
	assert.NoError(t, err)
	assert.Equal(t, shared.Coins(50), p.TotalCoins)
	assert.Equal(t, shared.XP(50), p.ExperiencePoints)

	err = p.Credit(25, 0)
	assert.NoError(t, err)
	assert.Equal(t, shared.Coins(75), p.TotalCoins)
	assert.Equal(t, shared.XP(50), p.ExperiencePoints)
}

func TestCredit_RejectsNegative(t *testing.T) {
	p, _ := NewProfile(validParams())

	err := p.Credit(-10, 0)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
	assert.Equal(t, shared.Coins(0), p.TotalCoins)
}

func TestSpendCoins(t *testing.T) {
	p, _ := NewProfile(validParams())
	_ = p.Credit(500, 0)

	err := p.SpendCoins(500)
	assert.NoError(t, err)
	assert.Equal(t, shared.Coins(0), p.TotalCoins)
}

func TestSpendCoins_InsufficientFunds(t *testing.T) {
	p, _ := NewProfile(validParams())
	_ = p.Credit(499, 0)

	err := p.SpendCoins(500)
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	// Баланс не изменился
	assert.Equal(t, shared.Coins(499), p.TotalCoins)
}

func TestLevelProgress_DisplayRatioOnly(t *testing.T) {
	p, _ := NewProfile(validParams())

	// Уровень 1: порог 100 XP
	_ = p.Credit(0, 50)
	assert.InDelta(t, 0.5, p.LevelProgress(), 0.001)
	assert.Equal(t, shared.MinLevel, p.Level)

	// Пересечение порога не меняет уровень
	_ = p.Credit(0, 100)
	assert.InDelta(t, 1.0, p.LevelProgress(), 0.001)
	assert.Equal(t, shared.MinLevel, p.Level)
}

func TestSetLevel(t *testing.T) {
	p, _ := NewProfile(validParams())

	err := p.SetLevel(shared.Level(3))
	assert.NoError(t, err)
	assert.Equal(t, shared.Level(3), p.Level)
	assert.Equal(t, 300, p.NextLevelThreshold())

	err = p.SetLevel(shared.Level(0))
	assert.Error(t, err)
}

func TestRecordActivity_UpholdsStreakInvariant(t *testing.T) {
	p, _ := NewProfile(validParams())
	policy := CalendarDayPolicy{}

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day2.AddDate(0, 0, 1)

	change := p.RecordActivity(day1, policy)
	assert.True(t, change.Extended)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.LongestStreak)

	p.RecordActivity(day2, policy)
	p.RecordActivity(day3, policy)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)

	// Пропуск дней: текущая серия сбрасывается, лучшая остаётся
	change = p.RecordActivity(day3.AddDate(0, 0, 5), policy)
	assert.True(t, change.Broken)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	assert.GreaterOrEqual(t, p.LongestStreak, p.CurrentStreak)
}

func TestChangePlan(t *testing.T) {
	p, _ := NewProfile(validParams())

	old, err := p.ChangePlan(shared.PlanPremium)
	assert.NoError(t, err)
	assert.Equal(t, shared.PlanFree, old)
	assert.Equal(t, shared.PlanPremium, p.Plan)

	_, err = p.ChangePlan(shared.Plan("gold"))
	assert.ErrorIs(t, err, shared.ErrInvalidPlan)
	assert.Equal(t, shared.PlanPremium, p.Plan)
}

func TestUpdateInfo(t *testing.T) {
	p, _ := NewProfile(validParams())

	err := p.UpdateInfo("New Name", "Learning to save", "", "#22c55e", "🦊")
	assert.NoError(t, err)
	assert.Equal(t, "New Name", p.DisplayName)
	assert.Equal(t, "Learning to save", p.Bio)
	assert.Equal(t, "#22c55e", p.FavoriteColor)

	err = p.UpdateInfo("", "", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestValidate(t *testing.T) {
	p, _ := NewProfile(validParams())
	assert.NoError(t, p.Validate())

	p.LongestStreak = 2
	p.CurrentStreak = 5
	assert.ErrorIs(t, p.Validate(), ErrStreakInvariant)
}

func TestWasActiveToday(t *testing.T) {
	p, _ := NewProfile(validParams())
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	assert.False(t, p.WasActiveToday(now))

	p.RecordActivity(now.Add(-2*time.Hour), CalendarDayPolicy{})
	assert.True(t, p.WasActiveToday(now))
	assert.False(t, p.WasActiveToday(now.AddDate(0, 0, 1)))
}
