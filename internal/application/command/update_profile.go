package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Редактирование публичной части профиля: имя, биография, аватар,
// оформление. Игровые показатели этим путём не меняются.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains the editable profile fields.
type UpdateProfileCommand struct {
	ProfileID      string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FavoriteColor  string
	SelectedAvatar string
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("update_profile: profile_id is required")
	}
	if c.DisplayName == "" {
		return errors.New("update_profile: display_name is required")
	}
	return nil
}

// UpdateProfileResult contains the updated profile.
type UpdateProfileResult struct {
	Profile *profile.Profile
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	profiles profile.Repository
	cache    profile.Cache
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(profiles profile.Repository, cache profile.Cache) *UpdateProfileHandler {
	return &UpdateProfileHandler{profiles: profiles, cache: cache}
}

// Handle executes the update profile command.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*UpdateProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *profile.Profile
	err := withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		if err := p.UpdateInfo(cmd.DisplayName, cmd.Bio, cmd.AvatarURL, cmd.FavoriteColor, cmd.SelectedAvatar); err != nil {
			return err
		}
		if err := h.profiles.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update_profile: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.ProfileID)
	}

	return &UpdateProfileResult{Profile: updated}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECT PLAN COMMAND
// Переключение тарифного плана. Платёжная сторона вне зоны
// ответственности сервера: план приходит уже подтверждённым.
// ══════════════════════════════════════════════════════════════════════════════

// SelectPlanCommand contains the data to switch a profile's plan.
type SelectPlanCommand struct {
	ProfileID string
	Plan      string
}

// Validate validates the command.
func (c SelectPlanCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("select_plan: profile_id is required")
	}
	if !shared.Plan(c.Plan).IsValid() {
		return shared.ErrInvalidPlan
	}
	return nil
}

// SelectPlanResult contains the result of a plan change.
type SelectPlanResult struct {
	ProfileID string
	OldPlan   string
	NewPlan   string
}

// SelectPlanHandler handles the SelectPlanCommand.
type SelectPlanHandler struct {
	profiles  profile.Repository
	cache     profile.Cache
	publisher shared.EventPublisher
}

// NewSelectPlanHandler creates a new SelectPlanHandler.
func NewSelectPlanHandler(
	profiles profile.Repository,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *SelectPlanHandler {
	return &SelectPlanHandler{profiles: profiles, cache: cache, publisher: publisher}
}

// Handle executes the select plan command.
func (h *SelectPlanHandler) Handle(ctx context.Context, cmd SelectPlanCommand) (*SelectPlanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var oldPlan shared.Plan
	err := withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		previous, err := p.ChangePlan(shared.Plan(cmd.Plan))
		if err != nil {
			return err
		}
		oldPlan = previous
		return h.profiles.Update(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("select_plan: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.ProfileID)
	}

	publishAll(h.publisher,
		shared.NewPlanChangedEvent(cmd.ProfileID, oldPlan.String(), cmd.Plan))

	return &SelectPlanResult{
		ProfileID: cmd.ProfileID,
		OldPlan:   oldPlan.String(),
		NewPlan:   cmd.Plan,
	}, nil
}
