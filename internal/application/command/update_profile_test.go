package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func TestUpdateProfile_UpdatesEditableFields(t *testing.T) {
	profiles := newFakeProfileRepo(newTestProfile(t, 100, 50))
	cache := &fakeProfileCache{}
	handler := NewUpdateProfileHandler(profiles, cache)

	result, err := handler.Handle(context.Background(), UpdateProfileCommand{
		ProfileID:      testProfileID,
		DisplayName:    "Новое имя",
		Bio:            "Коплю на мечту",
		FavoriteColor:  "#ff8800",
		SelectedAvatar: "fox",
	})
	assert.NoError(t, err)

	assert.Equal(t, "Новое имя", result.Profile.DisplayName)

	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, "Новое имя", stored.DisplayName)
	assert.Equal(t, "Коплю на мечту", stored.Bio)
	assert.Equal(t, "fox", stored.SelectedAvatar)

	// Игровые показатели не затронуты
	assert.Equal(t, shared.Coins(100), stored.TotalCoins)
	assert.Equal(t, shared.XP(50), stored.ExperiencePoints)

	assert.Contains(t, cache.invalidated, testProfileID)
}

func TestUpdateProfile_RequiresDisplayName(t *testing.T) {
	handler := NewUpdateProfileHandler(newFakeProfileRepo(newTestProfile(t, 0, 0)), &fakeProfileCache{})

	_, err := handler.Handle(context.Background(), UpdateProfileCommand{
		ProfileID: testProfileID,
	})
	assert.Error(t, err)
}

func TestSelectPlan_SwitchesPlan(t *testing.T) {
	profiles := newFakeProfileRepo(newTestProfile(t, 0, 0))
	publisher := &fakePublisher{}
	handler := NewSelectPlanHandler(profiles, &fakeProfileCache{}, publisher)

	result, err := handler.Handle(context.Background(), SelectPlanCommand{
		ProfileID: testProfileID,
		Plan:      string(shared.PlanPremium),
	})
	assert.NoError(t, err)

	assert.Equal(t, string(shared.PlanFree), result.OldPlan)
	assert.Equal(t, string(shared.PlanPremium), result.NewPlan)
	assert.Equal(t, shared.PlanPremium, profiles.mustGet(t, testProfileID).Plan)
	assert.Equal(t, []shared.EventType{shared.EventPlanChanged}, publisher.types())
}

func TestSelectPlan_RejectsUnknownPlan(t *testing.T) {
	handler := NewSelectPlanHandler(newFakeProfileRepo(newTestProfile(t, 0, 0)), &fakeProfileCache{}, &fakePublisher{})

	_, err := handler.Handle(context.Background(), SelectPlanCommand{
		ProfileID: testProfileID,
		Plan:      "platinum",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidPlan)
}
