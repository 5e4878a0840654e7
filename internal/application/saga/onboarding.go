package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Процесс обустройства нового пользователя после регистрации.
// Flow: Load Profile → Warm Cache → Seed Leaderboards → Publish Event
//
// Сама регистрация (валидация, хеширование пароля, создание записи)
// живёт в auth-слое; сага доводит аккаунт до рабочего состояния.
// Все шаги после загрузки профиля повторяемы: сагу можно запустить
// ещё раз без побочных эффектов.
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingInput contains all data required to finish onboarding.
type OnboardingInput struct {
	// ProfileID - the freshly registered profile (required).
	ProfileID string
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if i.ProfileID == "" {
		return errors.New("onboarding: profile ID is required")
	}
	return nil
}

// OnboardingResult contains the result of a successful onboarding.
type OnboardingResult struct {
	// Profile - the onboarded profile entity.
	Profile *profile.Profile

	// SeededBoards - leaderboards the profile was added to.
	SeededBoards []leaderboard.Board

	// OnboardedAt - timestamp of successful onboarding.
	OnboardedAt time.Time
}

// OnboardingStep represents a step in the onboarding process.
type OnboardingStep string

const (
	StepValidateInput    OnboardingStep = "validate_input"
	StepLoadNewProfile   OnboardingStep = "load_profile"
	StepWarmCache        OnboardingStep = "warm_cache"
	StepSeedLeaderboards OnboardingStep = "seed_leaderboards"
	StepPublishEvent     OnboardingStep = "publish_event"
	StepComplete         OnboardingStep = "complete"
)

// OnboardingState tracks the current state of the onboarding saga.
type OnboardingState struct {
	CurrentStep  OnboardingStep
	Input        OnboardingInput
	Profile      *profile.Profile
	SeededBoards []leaderboard.Board
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        error
	FailedStep   OnboardingStep
}

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga finishes account setup after registration.
type OnboardingSaga struct {
	profiles profile.Repository
	cache    profile.Cache
	boards   leaderboard.Repository
	eventBus shared.EventPublisher

	cacheTTL time.Duration
}

// OnboardingConfig contains configuration for the onboarding saga.
type OnboardingConfig struct {
	CacheTTL time.Duration
}

// DefaultOnboardingConfig returns default configuration.
func DefaultOnboardingConfig() OnboardingConfig {
	return OnboardingConfig{CacheTTL: 10 * time.Minute}
}

// NewOnboardingSaga creates a new onboarding saga with all dependencies.
func NewOnboardingSaga(
	profiles profile.Repository,
	cache profile.Cache,
	boards leaderboard.Repository,
	eventBus shared.EventPublisher,
	config OnboardingConfig,
) *OnboardingSaga {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}

	return &OnboardingSaga{
		profiles: profiles,
		cache:    cache,
		boards:   boards,
		eventBus: eventBus,
		cacheTTL: config.CacheTTL,
	}
}

// Execute runs the onboarding process for a registered profile.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	state := &OnboardingState{
		CurrentStep: StepValidateInput,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepValidateInput
		state.Error = err
		return nil, s.wrapError(state, err)
	}

	// Step 1: Load profile
	state.CurrentStep = StepLoadNewProfile
	if err := s.stepLoadProfile(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Warm cache (non-critical)
	state.CurrentStep = StepWarmCache
	s.stepWarmCache(ctx, state)

	// Step 3: Seed leaderboards (non-critical)
	state.CurrentStep = StepSeedLeaderboards
	s.stepSeedLeaderboards(ctx, state)

	// Step 4: Publish registration event
	state.CurrentStep = StepPublishEvent
	s.stepPublishEvent(state)

	// Complete
	state.CurrentStep = StepComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	return &OnboardingResult{
		Profile:      state.Profile,
		SeededBoards: state.SeededBoards,
		OnboardedAt:  now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

func (s *OnboardingSaga) stepLoadProfile(ctx context.Context, state *OnboardingState) error {
	p, err := s.profiles.GetByID(ctx, state.Input.ProfileID)
	if err != nil {
		state.FailedStep = StepLoadNewProfile
		state.Error = fmt.Errorf("failed to load profile: %w", err)
		return state.Error
	}

	state.Profile = p
	return nil
}

func (s *OnboardingSaga) stepWarmCache(ctx context.Context, state *OnboardingState) {
	if s.cache == nil {
		return
	}
	// Промах кеша не ломает регистрацию.
	_ = s.cache.Set(ctx, state.Profile, s.cacheTTL)
}

// stepSeedLeaderboards добавляет нового пользователя в живые рейтинги
// с нулевыми показателями, чтобы он сразу был виден в общем счёте.
func (s *OnboardingSaga) stepSeedLeaderboards(ctx context.Context, state *OnboardingState) {
	if s.boards == nil {
		return
	}

	p := state.Profile
	seeds := map[leaderboard.Board]leaderboard.Score{
		leaderboard.BoardCoins:  leaderboard.Score(p.TotalCoins),
		leaderboard.BoardStreak: leaderboard.Score(p.CurrentStreak),
	}

	for board, score := range seeds {
		if err := s.boards.UpdateScore(ctx, board, p.ID, score); err != nil {
			continue
		}
		state.SeededBoards = append(state.SeededBoards, board)
	}
}

func (s *OnboardingSaga) stepPublishEvent(state *OnboardingState) {
	if s.eventBus == nil {
		return
	}

	p := state.Profile
	event := shared.NewProfileRegisteredEvent(p.ID, p.Email.String(), p.DisplayName, p.Plan.String())
	_ = s.eventBus.Publish(event)
}

// wrapError wraps an error with saga context.
func (s *OnboardingSaga) wrapError(state *OnboardingState, err error) error {
	return &OnboardingError{
		Step:      state.FailedStep,
		ProfileID: state.Input.ProfileID,
		Cause:     err,
		Message:   fmt.Sprintf("onboarding failed at step '%s': %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingError represents an error during the onboarding process.
type OnboardingError struct {
	Step      OnboardingStep
	ProfileID string
	Cause     error
	Message   string
}

// Error implements the error interface.
func (e *OnboardingError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *OnboardingError) Unwrap() error {
	return e.Cause
}
