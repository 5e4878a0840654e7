package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAchievement_Satisfied(t *testing.T) {
	streak7, err := NewAchievement(NewAchievementParams{
		ID:               "e5f6a7b8-c9d0-4e1f-2a3b-4c5d6e7f8091",
		Name:             "Неделя огня",
		RequirementType:  RequireStreak,
		RequirementValue: 7,
		CoinsReward:      100,
	})
	assert.NoError(t, err)

	// Проверяется лучшая серия, а не текущая
	assert.False(t, streak7.Satisfied(ProgressSnapshot{CurrentStreak: 7, LongestStreak: 6}))
	assert.True(t, streak7.Satisfied(ProgressSnapshot{CurrentStreak: 1, LongestStreak: 7}))

	lessons5, err := NewAchievement(NewAchievementParams{
		ID:               "f6a7b8c9-d0e1-4f2a-3b4c-5d6e7f809102",
		Name:             "Первые шаги",
		RequirementType:  RequireLessons,
		RequirementValue: 5,
	})
	assert.NoError(t, err)

	assert.False(t, lessons5.Satisfied(ProgressSnapshot{LessonsCompleted: 4}))
	assert.True(t, lessons5.Satisfied(ProgressSnapshot{LessonsCompleted: 5}))
}

func TestNewAchievement_Validation(t *testing.T) {
	_, err := NewAchievement(NewAchievementParams{
		ID:               "e5f6a7b8-c9d0-4e1f-2a3b-4c5d6e7f8091",
		Name:             "Сломано",
		RequirementType:  RequirementType("unknown"),
		RequirementValue: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidAchievementRequirement)

	_, err = NewAchievement(NewAchievementParams{
		ID:               "e5f6a7b8-c9d0-4e1f-2a3b-4c5d6e7f8091",
		Name:             "Сломано",
		RequirementType:  RequireCoins,
		RequirementValue: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidAchievementRequirement)
}

func TestStoreItem_Stock(t *testing.T) {
	item, err := NewStoreItem(NewStoreItemParams{
		ID:        "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f",
		Name:      "Подарочная карта",
		CostCoins: 1000,
		Stock:     2,
	})
	assert.NoError(t, err)

	assert.True(t, item.InStock())
	assert.NoError(t, item.DecrementStock())
	assert.NoError(t, item.DecrementStock())
	assert.False(t, item.InStock())
	assert.Error(t, item.DecrementStock())

	unlimited, err := NewStoreItem(NewStoreItemParams{
		ID:        "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e70",
		Name:      "Тема оформления",
		CostCoins: 100,
		Stock:     StockUnlimited,
	})
	assert.NoError(t, err)
	assert.True(t, unlimited.InStock())
	assert.NoError(t, unlimited.DecrementStock())
	assert.True(t, unlimited.InStock())
}
