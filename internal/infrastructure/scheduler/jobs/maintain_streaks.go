package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/retry"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAINTAIN STREAKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// MaintainStreaksJob resets visibly-broken streaks shortly after midnight UTC.
// Серия считается сломанной лениво - при следующей активности политика сама
// сбросит счётчик; эта задача лишь приводит витрину (лидерборд, профиль)
// в честное состояние для тех, кто давно не заходил.
type MaintainStreaksJob struct {
	profiles  profile.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger

	config MaintainStreaksConfig

	lastStats atomic.Value // *StreakMaintenanceStats
}

// MaintainStreaksConfig contains configuration for the streak job.
type MaintainStreaksConfig struct {
	// GraceDays is how many missed days premium profiles are forgiven.
	// Free and basic profiles get zero.
	GraceDays int

	// Timeout bounds the whole run.
	Timeout time.Duration

	// UpdateRetries is how many optimistic-lock retries each reset gets.
	UpdateRetries int
}

// DefaultMaintainStreaksConfig returns sensible defaults.
func DefaultMaintainStreaksConfig() MaintainStreaksConfig {
	return MaintainStreaksConfig{
		GraceDays:     1,
		Timeout:       10 * time.Minute,
		UpdateRetries: 3,
	}
}

// StreakMaintenanceStats contains statistics from a maintenance run.
type StreakMaintenanceStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	Candidates    int
	StreaksReset  int
	GraceSpared   int
	EventsEmitted int
	Errors        []error
}

// NewMaintainStreaksJob creates the streak maintenance job.
func NewMaintainStreaksJob(
	profiles profile.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config MaintainStreaksConfig,
) *MaintainStreaksJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &MaintainStreaksJob{
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *MaintainStreaksJob) Name() string {
	return "maintain_streaks"
}

// Description returns a human-readable description.
func (j *MaintainStreaksJob) Description() string {
	return "Resets streak counters for profiles that missed their activity window"
}

// Run executes the maintenance job.
func (j *MaintainStreaksJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &StreakMaintenanceStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting maintain_streaks job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Anyone whose last activity is before yesterday has a broken streak.
	now := time.Now().UTC()
	cutoff := timeutil.StartOfDay(now).AddDate(0, 0, -1)

	candidates, err := j.profiles.FindWithBrokenStreaks(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to find broken streaks: %w", err)
	}
	stats.Candidates = len(candidates)

	for _, p := range candidates {
		if err := j.resetStreak(ctx, p, now, stats); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Warn("failed to reset streak",
				"profile_id", p.ID,
				"error", err,
			)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("maintain_streaks job completed",
		"duration", stats.Duration.String(),
		"candidates", stats.Candidates,
		"reset", stats.StreaksReset,
		"grace_spared", stats.GraceSpared,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("streak maintenance completed with %d errors", len(stats.Errors))
	}

	return nil
}

// resetStreak zeroes one profile's streak with optimistic-lock retries.
func (j *MaintainStreaksJob) resetStreak(ctx context.Context, p *profile.Profile, now time.Time, stats *StreakMaintenanceStats) error {
	state := profile.StreakState{
		Current:      p.CurrentStreak,
		Longest:      p.LongestStreak,
		LastActivity: p.LastActivityDate,
	}

	// Premium profiles get grace days: the streak survives a short gap
	// and only falls once the gap exceeds the allowance.
	missed := missedDays(state.LastActivity, now)
	if p.Plan == shared.PlanPremium && missed <= 1+j.config.GraceDays {
		stats.GraceSpared++
		return nil
	}

	previousStreak := p.CurrentStreak

	attempts := j.config.UpdateRetries
	if attempts <= 0 {
		attempts = 3
	}

	err := retry.Do(ctx, func(ctx context.Context) error {
		fresh, err := j.profiles.GetByID(ctx, p.ID)
		if err != nil {
			return retry.Permanent(err)
		}

		// Someone may have been active since the candidate query ran.
		freshState := profile.StreakState{
			Current:      fresh.CurrentStreak,
			Longest:      fresh.LongestStreak,
			LastActivity: fresh.LastActivityDate,
		}
		if !freshState.IsBroken(now) {
			return nil
		}

		fresh.CurrentStreak = 0
		fresh.UpdatedAt = time.Now().UTC()

		updateErr := j.profiles.Update(ctx, fresh)
		if updateErr != nil && !errors.Is(updateErr, shared.ErrOptimisticLock) {
			return retry.Permanent(updateErr)
		}
		return updateErr
	},
		retry.WithMaxAttempts(attempts),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, shared.ErrOptimisticLock)
		}),
	)
	if err != nil {
		return err
	}

	stats.StreaksReset++

	if j.publisher != nil {
		event := shared.NewStreakBrokenEvent(p.ID, previousStreak, missed)
		if pubErr := j.publisher.Publish(event); pubErr == nil {
			stats.EventsEmitted++
		}
	}

	return nil
}

// missedDays counts full days between the last activity day and now.
func missedDays(lastActivity, now time.Time) int {
	if lastActivity.IsZero() {
		return 0
	}
	diff := int(timeutil.StartOfDay(now).Sub(timeutil.StartOfDay(lastActivity)).Hours() / 24)
	if diff < 1 {
		return 0
	}
	return diff - 1
}

// LastStats returns statistics from the last run.
func (j *MaintainStreaksJob) LastStats() *StreakMaintenanceStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*StreakMaintenanceStats)
}
