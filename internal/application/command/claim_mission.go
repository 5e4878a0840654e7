package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLAIM MISSION REWARD COMMAND
// Награда за выполненную миссию текущего дня. Выдаётся один раз;
// недовыполненная или уже полученная миссия возвращает ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// ClaimMissionCommand contains the data to claim a mission reward.
type ClaimMissionCommand struct {
	// ProfileID is the acting profile, resolved from the verified token.
	ProfileID string

	// MissionID is the daily mission being claimed.
	MissionID string

	// Timestamp is when the claim occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c ClaimMissionCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("claim_mission: profile_id is required")
	}
	if c.MissionID == "" {
		return errors.New("claim_mission: mission_id is required")
	}
	return nil
}

// ClaimMissionResult contains the result of claiming a mission.
type ClaimMissionResult struct {
	ProfileID string
	MissionID string

	// Day is the mission day the claim was scoped to.
	Day time.Time

	// CoinsEarned, XPEarned - награда этой операции.
	CoinsEarned int
	XPEarned    int

	// TotalCoins, TotalXP - итоговые значения профиля.
	TotalCoins int
	TotalXP    int

	// CurrentStreak is the streak after the activity was counted.
	CurrentStreak int

	// ClaimedAt is when the claim was recorded.
	ClaimedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ClaimMissionHandler handles the ClaimMissionCommand.
type ClaimMissionHandler struct {
	profiles    profile.Repository
	missions    catalog.MissionRepository
	progression progression.Repository
	ledger      *progression.Ledger
	cache       profile.Cache
	publisher   shared.EventPublisher
}

// NewClaimMissionHandler creates a new ClaimMissionHandler.
func NewClaimMissionHandler(
	profiles profile.Repository,
	missions catalog.MissionRepository,
	progressionRepo progression.Repository,
	ledger *progression.Ledger,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *ClaimMissionHandler {
	return &ClaimMissionHandler{
		profiles:    profiles,
		missions:    missions,
		progression: progressionRepo,
		ledger:      ledger,
		cache:       cache,
		publisher:   publisher,
	}
}

// Handle executes the claim mission command.
func (h *ClaimMissionHandler) Handle(ctx context.Context, cmd ClaimMissionCommand) (*ClaimMissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}
	day := timeutil.StartOfDay(now)

	mission, err := h.missions.GetByID(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}
	if !mission.Active {
		return nil, shared.ErrMissionNotAssigned
	}

	var outcome *progression.MissionOutcome
	err = withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		userMission, err := h.progression.GetMissionProgress(ctx, p.ID, mission.ID, day)
		if err != nil {
			return err
		}

		outcome, err = h.ledger.ClaimMissionReward(p, mission, userMission, now)
		if err != nil {
			return err
		}

		// Сначала CAS-запись профиля: иначе проигранная гонка оставила бы
		// миссию помеченной полученной без начисления награды.
		if err := h.profiles.Update(ctx, outcome.Profile); err != nil {
			return err
		}
		return h.progression.UpsertMissionProgress(ctx, outcome.Progress)
	})
	if err != nil {
		return nil, fmt.Errorf("claim_mission: %w", err)
	}

	result := &ClaimMissionResult{
		ProfileID:     cmd.ProfileID,
		MissionID:     cmd.MissionID,
		Day:           day,
		CoinsEarned:   outcome.CoinsEarned,
		XPEarned:      outcome.XPEarned,
		TotalCoins:    int(outcome.Profile.TotalCoins),
		TotalXP:       int(outcome.Profile.ExperiencePoints),
		CurrentStreak: outcome.Profile.CurrentStreak,
		ClaimedAt:     now,
	}

	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.ProfileID)
	}

	events := []shared.Event{
		shared.NewMissionClaimedEvent(cmd.ProfileID, cmd.MissionID, timeutil.DayKey(day), outcome.CoinsEarned, outcome.XPEarned),
		shared.NewXPGainedEvent(cmd.ProfileID, outcome.XPEarned, result.TotalXP, "mission"),
	}
	if outcome.Streak.Extended {
		events = append(events, shared.NewStreakExtendedEvent(
			cmd.ProfileID, outcome.Profile.CurrentStreak, outcome.Profile.LongestStreak))
	}
	publishAll(h.publisher, events...)

	return result, nil
}
