// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Процесс разблокировки достижений.
// Flow: Load Profile → Build Snapshot → Load Catalog + Unlocks →
//
//	Evaluate Conditions → Grant Unlocks → Credit Coin Bonus → Publish Events
//
// Разблокировка одностороння: однажды выданное достижение не
// отзывается, даже если показатель позже упал ниже порога.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementCheckInput contains data needed to check for new achievements.
type AchievementCheckInput struct {
	// ProfileID - the profile to check achievements for.
	ProfileID string

	// TriggerEvent - what triggered this check (e.g., "xp_gained", "lesson_completed").
	TriggerEvent string

	// Timestamp - when the triggering event occurred.
	Timestamp time.Time
}

// Validate checks if the input is valid.
func (i AchievementCheckInput) Validate() error {
	if i.ProfileID == "" {
		return errors.New("achievement_flow: profile ID is required")
	}
	return nil
}

// AchievementFlowResult contains the result of achievement processing.
type AchievementFlowResult struct {
	// ProfileID - the profile that received achievements.
	ProfileID string

	// NewUnlocks - newly unlocked achievements.
	NewUnlocks []*catalog.Achievement

	// TotalCoinsBonus - coins awarded from all unlocks.
	TotalCoinsBonus int

	// ProcessedAt - when the flow completed.
	ProcessedAt time.Time
}

// HasNewUnlocks returns true if any achievements were unlocked.
func (r *AchievementFlowResult) HasNewUnlocks() bool {
	return len(r.NewUnlocks) > 0
}

// AchievementFlowStep represents a step in the achievement flow.
type AchievementFlowStep string

const (
	StepLoadProfile         AchievementFlowStep = "load_profile"
	StepBuildSnapshot       AchievementFlowStep = "build_snapshot"
	StepLoadCatalog         AchievementFlowStep = "load_catalog"
	StepEvaluateConditions  AchievementFlowStep = "evaluate_conditions"
	StepGrantUnlocks        AchievementFlowStep = "grant_unlocks"
	StepCreditBonus         AchievementFlowStep = "credit_bonus"
	StepPublishAchievEvents AchievementFlowStep = "publish_events"
	StepAchievementComplete AchievementFlowStep = "complete"
)

// AchievementFlowState tracks the current state of the achievement flow saga.
type AchievementFlowState struct {
	CurrentStep AchievementFlowStep
	Input       AchievementCheckInput
	Profile     *profile.Profile
	Snapshot    catalog.ProgressSnapshot
	Catalog     []*catalog.Achievement
	UnlockedIDs map[string]bool
	NewUnlocks  []*catalog.Achievement
	CoinsBonus  int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       error
	FailedStep  AchievementFlowStep
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowSaga orchestrates the complete achievement checking and granting process.
// It evaluates catalog conditions against a progress snapshot, persists new
// unlocks, credits coin bonuses and publishes events.
type AchievementFlowSaga struct {
	// Dependencies
	profiles     profile.Repository
	progression  progression.Repository
	achievements catalog.AchievementRepository
	cache        profile.Cache
	eventBus     shared.EventPublisher

	// Configuration
	enableCoinBonuses bool
	maxUnlocksPerRun  int
	creditRetries     int
}

// AchievementFlowConfig contains configuration for the achievement flow saga.
type AchievementFlowConfig struct {
	EnableCoinBonuses bool
	MaxUnlocksPerRun  int
	CreditRetries     int
}

// DefaultAchievementFlowConfig returns default configuration.
func DefaultAchievementFlowConfig() AchievementFlowConfig {
	return AchievementFlowConfig{
		EnableCoinBonuses: true,
		MaxUnlocksPerRun:  5, // Prevent spam if something goes wrong
		CreditRetries:     3,
	}
}

// NewAchievementFlowSaga creates a new achievement flow saga with all dependencies.
func NewAchievementFlowSaga(
	profiles profile.Repository,
	progressionRepo progression.Repository,
	achievements catalog.AchievementRepository,
	cache profile.Cache,
	eventBus shared.EventPublisher,
	config AchievementFlowConfig,
) *AchievementFlowSaga {
	if config.MaxUnlocksPerRun <= 0 {
		config.MaxUnlocksPerRun = 5
	}
	if config.CreditRetries <= 0 {
		config.CreditRetries = 3
	}

	return &AchievementFlowSaga{
		profiles:          profiles,
		progression:       progressionRepo,
		achievements:      achievements,
		cache:             cache,
		eventBus:          eventBus,
		enableCoinBonuses: config.EnableCoinBonuses,
		maxUnlocksPerRun:  config.MaxUnlocksPerRun,
		creditRetries:     config.CreditRetries,
	}
}

// Execute runs the complete achievement checking and granting process.
func (s *AchievementFlowSaga) Execute(ctx context.Context, input AchievementCheckInput) (*AchievementFlowResult, error) {
	state := &AchievementFlowState{
		CurrentStep: StepLoadProfile,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepLoadProfile
		state.Error = err
		return nil, s.wrapError(state, err)
	}

	// Step 1: Load profile
	if err := s.stepLoadProfile(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Build progress snapshot
	state.CurrentStep = StepBuildSnapshot
	if err := s.stepBuildSnapshot(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 3: Load catalog and existing unlocks
	state.CurrentStep = StepLoadCatalog
	if err := s.stepLoadCatalog(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 4: Evaluate conditions
	state.CurrentStep = StepEvaluateConditions
	s.stepEvaluateConditions(state)

	// If no new unlocks, return early
	if len(state.NewUnlocks) == 0 {
		now := time.Now().UTC()
		state.CompletedAt = &now
		return &AchievementFlowResult{
			ProfileID:   state.Input.ProfileID,
			NewUnlocks:  []*catalog.Achievement{},
			ProcessedAt: now,
		}, nil
	}

	// Step 5: Grant unlocks (persist to DB)
	state.CurrentStep = StepGrantUnlocks
	if err := s.stepGrantUnlocks(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 6: Credit coin bonuses
	state.CurrentStep = StepCreditBonus
	if err := s.stepCreditBonus(ctx, state); err != nil {
		// Non-critical: unlocks are already durable, coins can be
		// re-credited by a later run of the same trigger.
	}

	// Step 7: Publish domain events
	state.CurrentStep = StepPublishAchievEvents
	s.stepPublishEvents(state)

	// Complete
	state.CurrentStep = StepAchievementComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	return &AchievementFlowResult{
		ProfileID:       state.Input.ProfileID,
		NewUnlocks:      state.NewUnlocks,
		TotalCoinsBonus: state.CoinsBonus,
		ProcessedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepLoadProfile loads the profile entity from the repository.
func (s *AchievementFlowSaga) stepLoadProfile(ctx context.Context, state *AchievementFlowState) error {
	p, err := s.profiles.GetByID(ctx, state.Input.ProfileID)
	if err != nil {
		state.FailedStep = StepLoadProfile
		state.Error = fmt.Errorf("failed to load profile: %w", err)
		return state.Error
	}

	state.Profile = p
	return nil
}

// stepBuildSnapshot собирает срез показателей для проверки условий.
func (s *AchievementFlowSaga) stepBuildSnapshot(ctx context.Context, state *AchievementFlowState) error {
	p := state.Profile

	snapshot := catalog.ProgressSnapshot{
		TotalCoins:       int(p.TotalCoins),
		ExperiencePoints: int(p.ExperiencePoints),
		CurrentStreak:    p.CurrentStreak,
		LongestStreak:    p.LongestStreak,
		Level:            int(p.Level),
	}

	lessons, err := s.progression.CountCompletedLessons(ctx, p.ID)
	if err != nil {
		state.FailedStep = StepBuildSnapshot
		state.Error = fmt.Errorf("failed to count lessons: %w", err)
		return state.Error
	}
	snapshot.LessonsCompleted = lessons

	purchases, err := s.progression.CountPurchases(ctx, p.ID)
	if err != nil {
		state.FailedStep = StepBuildSnapshot
		state.Error = fmt.Errorf("failed to count purchases: %w", err)
		return state.Error
	}
	snapshot.Purchases = purchases

	state.Snapshot = snapshot
	return nil
}

// stepLoadCatalog загружает каталог достижений и существующие разблокировки.
func (s *AchievementFlowSaga) stepLoadCatalog(ctx context.Context, state *AchievementFlowState) error {
	all, err := s.achievements.List(ctx)
	if err != nil {
		state.FailedStep = StepLoadCatalog
		state.Error = fmt.Errorf("failed to load achievement catalog: %w", err)
		return state.Error
	}
	state.Catalog = all

	unlocked, err := s.progression.ListUnlockedAchievements(ctx, state.Input.ProfileID)
	if err != nil {
		state.FailedStep = StepLoadCatalog
		state.Error = fmt.Errorf("failed to load existing unlocks: %w", err)
		return state.Error
	}

	state.UnlockedIDs = make(map[string]bool, len(unlocked))
	for _, u := range unlocked {
		state.UnlockedIDs[u.AchievementID] = true
	}

	return nil
}

// stepEvaluateConditions проверяет условия всех ещё не разблокированных
// достижений против среза показателей.
func (s *AchievementFlowSaga) stepEvaluateConditions(state *AchievementFlowState) {
	var unlocks []*catalog.Achievement

	for _, a := range state.Catalog {
		if state.UnlockedIDs[a.ID] {
			continue
		}
		if a.Satisfied(state.Snapshot) {
			unlocks = append(unlocks, a)
		}
	}

	// Limit unlocks per run to prevent spam
	if len(unlocks) > s.maxUnlocksPerRun {
		unlocks = unlocks[:s.maxUnlocksPerRun]
	}

	state.NewUnlocks = unlocks
}

// stepGrantUnlocks persists the new unlocks to the database.
func (s *AchievementFlowSaga) stepGrantUnlocks(ctx context.Context, state *AchievementFlowState) error {
	now := time.Now().UTC()

	for _, a := range state.NewUnlocks {
		unlock := &progression.UnlockedAchievement{
			ProfileID:     state.Input.ProfileID,
			AchievementID: a.ID,
			UnlockedAt:    now,
		}
		if err := s.progression.SaveUnlockedAchievement(ctx, unlock); err != nil {
			state.FailedStep = StepGrantUnlocks
			state.Error = fmt.Errorf("failed to save unlock %s: %w", a.ID, err)
			return state.Error
		}
	}

	return nil
}

// stepCreditBonus начисляет бонусные монеты за разблокировки.
func (s *AchievementFlowSaga) stepCreditBonus(ctx context.Context, state *AchievementFlowState) error {
	if !s.enableCoinBonuses {
		return nil
	}

	totalBonus := 0
	for _, a := range state.NewUnlocks {
		totalBonus += a.CoinsReward
	}
	if totalBonus == 0 {
		return nil
	}

	err := retry.Do(ctx, func(ctx context.Context) error {
		p, err := s.profiles.GetByID(ctx, state.Input.ProfileID)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := p.Credit(totalBonus, 0); err != nil {
			return retry.Permanent(err)
		}
		err = s.profiles.Update(ctx, p)
		if err != nil && !errors.Is(err, shared.ErrOptimisticLock) {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithMaxAttempts(s.creditRetries),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, shared.ErrOptimisticLock)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to credit achievement bonus: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, state.Input.ProfileID)
	}

	state.CoinsBonus = totalBonus
	return nil
}

// stepPublishEvents publishes domain events for each unlock.
func (s *AchievementFlowSaga) stepPublishEvents(state *AchievementFlowState) {
	if s.eventBus == nil {
		return
	}

	for _, a := range state.NewUnlocks {
		event := shared.NewAchievementUnlockedEvent(state.Input.ProfileID, a.ID, a.CoinsReward)
		if err := s.eventBus.Publish(event); err != nil {
			// Events can be replayed, continue with the rest.
			continue
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// wrapError wraps an error with saga context.
func (s *AchievementFlowSaga) wrapError(state *AchievementFlowState, err error) error {
	return &AchievementFlowError{
		Step:      state.FailedStep,
		ProfileID: state.Input.ProfileID,
		Cause:     err,
		Message:   fmt.Sprintf("achievement flow failed at step '%s': %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVENIENCE METHODS FOR COMMON TRIGGERS
// ══════════════════════════════════════════════════════════════════════════════

// CheckAfterLessonCompleted checks achievements after a lesson completion.
func (s *AchievementFlowSaga) CheckAfterLessonCompleted(ctx context.Context, profileID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		ProfileID:    profileID,
		TriggerEvent: "lesson_completed",
		Timestamp:    time.Now().UTC(),
	})
}

// CheckAfterXPGain checks achievements after an XP gain event.
func (s *AchievementFlowSaga) CheckAfterXPGain(ctx context.Context, profileID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		ProfileID:    profileID,
		TriggerEvent: "xp_gained",
		Timestamp:    time.Now().UTC(),
	})
}

// CheckAfterPurchase checks achievements after a store purchase.
func (s *AchievementFlowSaga) CheckAfterPurchase(ctx context.Context, profileID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		ProfileID:    profileID,
		TriggerEvent: "purchase_made",
		Timestamp:    time.Now().UTC(),
	})
}

// CheckAfterStreakExtended checks achievements after a streak extension.
func (s *AchievementFlowSaga) CheckAfterStreakExtended(ctx context.Context, profileID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		ProfileID:    profileID,
		TriggerEvent: "streak_extended",
		Timestamp:    time.Now().UTC(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowError represents an error during the achievement flow.
type AchievementFlowError struct {
	Step      AchievementFlowStep
	ProfileID string
	Cause     error
	Message   string
}

// Error implements the error interface.
func (e *AchievementFlowError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AchievementFlowError) Unwrap() error {
	return e.Cause
}
