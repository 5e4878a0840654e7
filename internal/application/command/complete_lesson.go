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
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// Завершение урока: прогресс - 100, флаг завершения, награда.
// Повторное завершение - no-op без повторной награды.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	// ProfileID is the acting profile, resolved from the verified token.
	ProfileID string

	// LessonID is the lesson being completed.
	LessonID string

	// Score is an optional quiz score (0 when the lesson has no quiz).
	Score int

	// Timestamp is when the completion occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("complete_lesson: profile_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	if c.Score < 0 || c.Score > 100 {
		return errors.New("complete_lesson: score must be within 0..100")
	}
	return nil
}

// CompleteLessonResult contains the result of completing a lesson.
type CompleteLessonResult struct {
	// ProfileID is the acting profile.
	ProfileID string

	// LessonID is the completed lesson.
	LessonID string

	// AlreadyCompleted is true when this was a repeat completion (no-op).
	AlreadyCompleted bool

	// CoinsEarned, XPEarned - награда этой операции.
	CoinsEarned int
	XPEarned    int

	// TotalCoins, TotalXP - итоговые значения профиля после операции.
	TotalCoins int
	TotalXP    int

	// CurrentStreak is the streak after the activity was counted.
	CurrentStreak int

	// StreakExtended is true when the streak grew.
	StreakExtended bool

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	profiles    profile.Repository
	lessons     catalog.LessonRepository
	progression progression.Repository
	ledger      *progression.Ledger
	cache       profile.Cache
	publisher   shared.EventPublisher
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	profiles profile.Repository,
	lessons catalog.LessonRepository,
	progressionRepo progression.Repository,
	ledger *progression.Ledger,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *CompleteLessonHandler {
	return &CompleteLessonHandler{
		profiles:    profiles,
		lessons:     lessons,
		progression: progressionRepo,
		ledger:      ledger,
		cache:       cache,
		publisher:   publisher,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	lesson, err := h.lessons.GetByID(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	var outcome *progression.LessonOutcome
	err = withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		if !p.Plan.AtLeast(shared.Plan(lesson.MinPlan)) {
			return shared.ErrPlanTooLow
		}

		existing, err := h.progression.GetLessonProgress(ctx, p.ID, lesson.ID)
		if err != nil {
			return err
		}

		outcome, err = h.ledger.CompleteLesson(p, lesson, existing, now)
		if err != nil {
			return err
		}

		if cmd.Score > 0 && outcome.RewardApplied {
			outcome.Progress.Score = cmd.Score
		}

		if !outcome.RewardApplied {
			// Repeat completion: nothing to persist.
			return nil
		}

		// Сначала CAS-запись профиля: проигранная гонка откатывается
		// чисто, пока запись прогресса ещё не помечена завершённой.
		if err := h.profiles.Update(ctx, outcome.Profile); err != nil {
			return err
		}
		return h.progression.UpsertLessonProgress(ctx, outcome.Progress)
	})
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}

	result := &CompleteLessonResult{
		ProfileID:        cmd.ProfileID,
		LessonID:         cmd.LessonID,
		AlreadyCompleted: !outcome.RewardApplied,
		CoinsEarned:      outcome.CoinsEarned,
		XPEarned:         outcome.XPEarned,
		TotalCoins:       int(outcome.Profile.TotalCoins),
		TotalXP:          int(outcome.Profile.ExperiencePoints),
		CurrentStreak:    outcome.Profile.CurrentStreak,
		StreakExtended:   outcome.Streak.Extended,
		CompletedAt:      now,
	}

	if outcome.RewardApplied {
		if h.cache != nil {
			_ = h.cache.Invalidate(ctx, cmd.ProfileID)
		}

		events := []shared.Event{
			shared.NewLessonCompletedEvent(cmd.ProfileID, cmd.LessonID, outcome.CoinsEarned, outcome.XPEarned),
			shared.NewXPGainedEvent(cmd.ProfileID, outcome.XPEarned, result.TotalXP, "lesson"),
		}
		if outcome.Streak.Extended {
			events = append(events, shared.NewStreakExtendedEvent(
				cmd.ProfileID, outcome.Profile.CurrentStreak, outcome.Profile.LongestStreak))
		}
		publishAll(h.publisher, events...)
	}

	return result, nil
}
