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
// ADVANCE LESSON PROGRESS COMMAND
// Частичный прогресс урока. Прогресс монотонный; достижение 100
// завершает урок и начисляет награду ровно один раз.
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceLessonCommand contains the data to advance lesson progress.
type AdvanceLessonCommand struct {
	// ProfileID is the acting profile, resolved from the verified token.
	ProfileID string

	// LessonID is the lesson being advanced.
	LessonID string

	// Increment is the progress delta, must be positive.
	Increment int

	// Timestamp is when the progress occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c AdvanceLessonCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("advance_lesson: profile_id is required")
	}
	if c.LessonID == "" {
		return errors.New("advance_lesson: lesson_id is required")
	}
	if c.Increment <= 0 {
		return errors.New("advance_lesson: increment must be positive")
	}
	return nil
}

// AdvanceLessonResult contains the result of advancing a lesson.
type AdvanceLessonResult struct {
	ProfileID string
	LessonID  string

	// Progress is the progress value after the operation.
	Progress int

	// Completed is true when this advance finished the lesson.
	Completed bool

	// CoinsEarned, XPEarned - награда, если урок завершился.
	CoinsEarned int
	XPEarned    int

	// TotalCoins, TotalXP - итоговые значения профиля.
	TotalCoins int
	TotalXP    int

	// CurrentStreak is the streak after the activity was counted.
	CurrentStreak int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceLessonHandler handles the AdvanceLessonCommand.
type AdvanceLessonHandler struct {
	profiles    profile.Repository
	lessons     catalog.LessonRepository
	progression progression.Repository
	ledger      *progression.Ledger
	cache       profile.Cache
	publisher   shared.EventPublisher
}

// NewAdvanceLessonHandler creates a new AdvanceLessonHandler.
func NewAdvanceLessonHandler(
	profiles profile.Repository,
	lessons catalog.LessonRepository,
	progressionRepo progression.Repository,
	ledger *progression.Ledger,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *AdvanceLessonHandler {
	return &AdvanceLessonHandler{
		profiles:    profiles,
		lessons:     lessons,
		progression: progressionRepo,
		ledger:      ledger,
		cache:       cache,
		publisher:   publisher,
	}
}

// Handle executes the advance lesson command.
func (h *AdvanceLessonHandler) Handle(ctx context.Context, cmd AdvanceLessonCommand) (*AdvanceLessonResult, error) {
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

	var (
		outcome          *progression.LessonOutcome
		alreadyCompleted bool
		oldProgress      int
	)
	err = withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		if !p.Plan.AtLeast(shared.Plan(lesson.MinPlan)) {
			return shared.ErrPlanTooLow
		}

		existing, err := h.progression.GetLessonProgress(ctx, p.ID, lesson.ID)
		if err != nil {
			return err
		}
		alreadyCompleted = existing != nil && existing.Completed
		if existing != nil {
			oldProgress = existing.Progress
		} else {
			oldProgress = 0
		}

		outcome, err = h.ledger.AdvanceLessonProgress(p, lesson, existing, cmd.Increment, now)
		if err != nil {
			return err
		}

		if alreadyCompleted {
			// Терминальное состояние: писать нечего.
			return nil
		}

		// Сначала CAS-запись профиля, затем прогресс: см. CompleteLesson.
		if err := h.profiles.Update(ctx, outcome.Profile); err != nil {
			return err
		}
		return h.progression.UpsertLessonProgress(ctx, outcome.Progress)
	})
	if err != nil {
		return nil, fmt.Errorf("advance_lesson: %w", err)
	}

	result := &AdvanceLessonResult{
		ProfileID:     cmd.ProfileID,
		LessonID:      cmd.LessonID,
		Progress:      outcome.Progress.Progress,
		Completed:     outcome.Progress.Completed,
		CoinsEarned:   outcome.CoinsEarned,
		XPEarned:      outcome.XPEarned,
		TotalCoins:    int(outcome.Profile.TotalCoins),
		TotalXP:       int(outcome.Profile.ExperiencePoints),
		CurrentStreak: outcome.Profile.CurrentStreak,
	}

	if !alreadyCompleted {
		if h.cache != nil {
			_ = h.cache.Invalidate(ctx, cmd.ProfileID)
		}

		events := []shared.Event{}
		if outcome.RewardApplied {
			events = append(events,
				shared.NewLessonCompletedEvent(cmd.ProfileID, cmd.LessonID, outcome.CoinsEarned, outcome.XPEarned),
				shared.NewXPGainedEvent(cmd.ProfileID, outcome.XPEarned, result.TotalXP, "lesson"),
			)
		} else {
			events = append(events, shared.NewLessonProgressedEvent(
				cmd.ProfileID, cmd.LessonID, oldProgress, result.Progress))
		}
		if outcome.Streak.Extended {
			events = append(events, shared.NewStreakExtendedEvent(
				cmd.ProfileID, outcome.Profile.CurrentStreak, outcome.Profile.LongestStreak))
		}
		publishAll(h.publisher, events...)
	}

	return result, nil
}
