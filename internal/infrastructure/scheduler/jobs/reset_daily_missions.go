package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET DAILY MISSIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// MissionCacheInvalidator clears cached mission progress views.
type MissionCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ResetDailyMissionsJob runs right after midnight UTC. Прогресс миссий
// хранится с ключом дня, поэтому "сброс" - это не удаление данных, а
// инвалидация кешированных витрин: наступивший день просто читается
// с чистого листа.
type ResetDailyMissionsJob struct {
	missions    catalog.MissionRepository
	invalidator MissionCacheInvalidator
	publisher   shared.EventPublisher
	logger      *slog.Logger

	// missionsCachePattern is the key pattern holding cached mission views.
	missionsCachePattern string
}

// NewResetDailyMissionsJob creates the reset job.
func NewResetDailyMissionsJob(
	missions catalog.MissionRepository,
	invalidator MissionCacheInvalidator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	missionsCachePattern string,
) *ResetDailyMissionsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ResetDailyMissionsJob{
		missions:             missions,
		invalidator:          invalidator,
		publisher:            publisher,
		logger:               logger,
		missionsCachePattern: missionsCachePattern,
	}
}

// Name returns the job name.
func (j *ResetDailyMissionsJob) Name() string {
	return "reset_daily_missions"
}

// Description returns a human-readable description.
func (j *ResetDailyMissionsJob) Description() string {
	return "Invalidates cached mission views at day rollover and announces the new mission day"
}

// Run executes the reset job.
func (j *ResetDailyMissionsJob) Run(ctx context.Context) error {
	day := timeutil.StartOfDay(time.Now().UTC())
	dayKey := timeutil.DayKey(day)

	j.logger.Info("starting reset_daily_missions job", "day", dayKey)

	active, err := j.missions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active missions: %w", err)
	}

	if j.invalidator != nil && j.missionsCachePattern != "" {
		if err := j.invalidator.DeleteByPattern(ctx, j.missionsCachePattern); err != nil {
			// Cached views self-expire; a failed invalidation only delays
			// the rollover for the cache TTL.
			j.logger.Warn("failed to invalidate mission caches", "error", err)
		}
	}

	if j.publisher != nil {
		event := shared.NewDailyMissionsResetEvent(dayKey, len(active))
		if err := j.publisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish missions reset event", "error", err)
		}
	}

	j.logger.Info("reset_daily_missions job completed",
		"day", dayKey,
		"active_missions", len(active),
	)

	return nil
}
