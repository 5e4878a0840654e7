package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	redisinfra "github.com/luckcash/luckcash-server/internal/infrastructure/persistence/redis"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP DAILY STATS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RollupDailyStatsJob drains the Redis day counters into stats_history.
// Запускается после полуночи и закрывает ПРЕДЫДУЩИЙ день: к этому моменту
// все события дня уже накоплены, а серия зафиксирована.
type RollupDailyStatsJob struct {
	profiles    profile.Repository
	progression progression.Repository
	accumulator *redisinfra.StatsAccumulator
	activity    *redisinfra.ActivityTracker
	publisher   shared.EventPublisher
	logger      *slog.Logger

	config RollupDailyStatsConfig
}

// RollupDailyStatsConfig contains configuration for the rollup job.
type RollupDailyStatsConfig struct {
	// ActivityWindow is how far back to look for active profiles.
	// Must cover a full day plus the scheduling slack.
	ActivityWindow time.Duration

	// Timeout bounds the whole run.
	Timeout time.Duration
}

// DefaultRollupDailyStatsConfig returns sensible defaults.
func DefaultRollupDailyStatsConfig() RollupDailyStatsConfig {
	return RollupDailyStatsConfig{
		ActivityWindow: 26 * time.Hour,
		Timeout:        10 * time.Minute,
	}
}

// NewRollupDailyStatsJob creates the rollup job.
func NewRollupDailyStatsJob(
	profiles profile.Repository,
	progressionRepo progression.Repository,
	accumulator *redisinfra.StatsAccumulator,
	activity *redisinfra.ActivityTracker,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RollupDailyStatsConfig,
) *RollupDailyStatsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RollupDailyStatsJob{
		profiles:    profiles,
		progression: progressionRepo,
		accumulator: accumulator,
		activity:    activity,
		publisher:   publisher,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *RollupDailyStatsJob) Name() string {
	return "rollup_daily_stats"
}

// Description returns a human-readable description.
func (j *RollupDailyStatsJob) Description() string {
	return "Persists per-profile daily counters into the stats history table"
}

// Run executes the rollup job for the previous UTC day.
func (j *RollupDailyStatsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	day := timeutil.StartOfDay(time.Now().UTC()).AddDate(0, 0, -1)
	dayKey := timeutil.DayKey(day)

	j.logger.Info("starting rollup_daily_stats job", "day", dayKey)

	window := j.config.ActivityWindow
	if window <= 0 {
		window = 26 * time.Hour
	}

	profileIDs, err := j.activity.GetActiveSince(ctx, window)
	if err != nil {
		return fmt.Errorf("failed to get active profiles: %w", err)
	}

	var rolled, skipped, failed int
	for _, profileID := range profileIDs {
		ok, err := j.rollupProfile(ctx, profileID, day)
		switch {
		case err != nil:
			failed++
			j.logger.Warn("failed to roll up stats",
				"profile_id", profileID,
				"error", err,
			)
		case ok:
			rolled++
		default:
			skipped++
		}
	}

	if j.publisher != nil && rolled > 0 {
		event := shared.NewStatsRolledUpEvent(dayKey, rolled)
		if err := j.publisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish stats rollup event", "error", err)
		}
	}

	j.logger.Info("rollup_daily_stats job completed",
		"day", dayKey,
		"rolled", rolled,
		"skipped", skipped,
		"failed", failed,
	)

	if failed > 0 {
		return fmt.Errorf("rollup completed with %d failures", failed)
	}
	return nil
}

// rollupProfile persists one profile's counters. Returns false when there
// was nothing to persist.
func (j *RollupDailyStatsJob) rollupProfile(ctx context.Context, profileID string, day time.Time) (bool, error) {
	counters, err := j.accumulator.Get(ctx, profileID, day)
	if err != nil {
		return false, err
	}
	if counters.IsZero() {
		return false, nil
	}

	p, err := j.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			// Deleted since; drop the counters.
			_ = j.accumulator.Clear(ctx, profileID, day)
			return false, nil
		}
		return false, err
	}

	stats := &progression.DailyStats{
		ProfileID:        profileID,
		Day:              day,
		CoinsEarned:      counters.CoinsEarned,
		XPEarned:         counters.XPEarned,
		LessonsCompleted: counters.LessonsCompleted,
		MissionsClaimed:  counters.MissionsClaimed,
		StreakAtEnd:      p.CurrentStreak,
		CreatedAt:        time.Now().UTC(),
	}

	if err := j.progression.UpsertDailyStats(ctx, stats); err != nil {
		return false, err
	}

	// Counters are cleared only after the row is durable; a crash between
	// the two replays as an idempotent upsert.
	if err := j.accumulator.Clear(ctx, profileID, day); err != nil {
		j.logger.Warn("failed to clear day counters",
			"profile_id", profileID,
			"error", err,
		)
	}

	return true, nil
}
