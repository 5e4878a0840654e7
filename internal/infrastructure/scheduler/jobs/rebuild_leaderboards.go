// Package jobs contains implementations of scheduled jobs for LuckCash.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARDS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardsJob rebuilds the coins and streak boards from Postgres,
// freezes new snapshots, and emits rank-change events. Снимки нужны, чтобы
// пользователь видел "+3" рядом со своей позицией, а не только голый ранг.
type RebuildLeaderboardsJob struct {
	profiles  profile.Repository
	store     leaderboard.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger

	config RebuildLeaderboardsConfig

	lastStats atomic.Value // *RebuildStats
}

// BoardRebuilder is the maintenance surface of the Redis leaderboard store
// that goes beyond the domain Repository contract.
type BoardRebuilder interface {
	RebuildBoard(ctx context.Context, board leaderboard.Board, entries []*leaderboard.Entry) error
}

// RebuildLeaderboardsConfig contains configuration for the rebuild job.
type RebuildLeaderboardsConfig struct {
	// MaxEntries is how many profiles each board holds.
	MaxEntries int

	// MinRankChangeForEvent is the minimum climb to emit RankChangedEvent.
	MinRankChangeForEvent int

	// TopNThreshold emits EnteredTopNEvent when a profile enters this range.
	TopNThreshold int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration

	// Rebuilder, when set, replaces the live sorted sets atomically.
	Rebuilder BoardRebuilder
}

// DefaultRebuildLeaderboardsConfig returns sensible defaults.
func DefaultRebuildLeaderboardsConfig() RebuildLeaderboardsConfig {
	return RebuildLeaderboardsConfig{
		MaxEntries:            1000,
		MinRankChangeForEvent: 3,
		TopNThreshold:         10,
		Timeout:               5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	BoardsProcessed  int
	SnapshotsCreated int
	RankChangesFound int
	EventsEmitted    int
	Errors           []error
}

// NewRebuildLeaderboardsJob creates the rebuild job.
func NewRebuildLeaderboardsJob(
	profiles profile.Repository,
	store leaderboard.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardsConfig,
) *RebuildLeaderboardsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardsJob{
		profiles:  profiles,
		store:     store,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardsJob) Name() string {
	return "rebuild_leaderboards"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardsJob) Description() string {
	return "Rebuilds coins and streak leaderboards and freezes rank-change snapshots"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_leaderboards job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	for _, board := range []leaderboard.Board{leaderboard.BoardCoins, leaderboard.BoardStreak} {
		if err := j.rebuildBoard(ctx, board, stats); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to rebuild board",
				"board", board.String(),
				"error", err,
			)
		}
		stats.BoardsProcessed++
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("rebuild_leaderboards job completed",
		"duration", stats.Duration.String(),
		"boards", stats.BoardsProcessed,
		"snapshots_created", stats.SnapshotsCreated,
		"rank_changes", stats.RankChangesFound,
		"events", stats.EventsEmitted,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// rebuildBoard rebuilds a single board from the authoritative Postgres data.
func (j *RebuildLeaderboardsJob) rebuildBoard(ctx context.Context, board leaderboard.Board, stats *RebuildStats) error {
	profiles, err := j.loadProfiles(ctx, board)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if len(profiles) == 0 {
		j.logger.Debug("board is empty, skipping", "board", board.String())
		return nil
	}

	ranking := leaderboard.NewRanking(board)
	for _, p := range profiles {
		score := scoreFor(board, p)

		entry, err := leaderboard.NewEntry(1, p.ID, p.DisplayName, score, int(p.Level))
		if err != nil {
			j.logger.Warn("failed to build entry",
				"profile_id", p.ID,
				"error", err,
			)
			continue
		}
		entry.SelectedAvatar = p.SelectedAvatar
		entry.UpdatedAt = p.UpdatedAt

		if err := ranking.Add(entry); err != nil {
			j.logger.Warn("failed to add entry to ranking",
				"profile_id", p.ID,
				"error", err,
			)
		}
	}

	ranking.Sort()

	snapshot, err := leaderboard.NewSnapshot(ranking)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	// Rank changes compare against the snapshot the previous run froze.
	previous, err := j.store.GetSnapshot(ctx, board)
	if err != nil {
		previous = nil // first run
	}
	if previous != nil {
		snapshot.ApplyRankChanges(previous)
		j.emitRankEvents(board, snapshot, previous, stats)
	}

	if err := j.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	stats.SnapshotsCreated++

	if j.config.Rebuilder != nil {
		if err := j.config.Rebuilder.RebuildBoard(ctx, board, snapshot.Entries); err != nil {
			j.logger.Warn("failed to rebuild live board",
				"board", board.String(),
				"error", err,
			)
		}
	}

	j.logger.Debug("board rebuilt",
		"board", board.String(),
		"profiles", snapshot.TotalProfiles,
		"average_score", int(snapshot.AverageScore),
	)

	return nil
}

// emitRankEvents publishes events for significant rank movement.
func (j *RebuildLeaderboardsJob) emitRankEvents(
	board leaderboard.Board,
	snapshot *leaderboard.Snapshot,
	previous *leaderboard.Snapshot,
	stats *RebuildStats,
) {
	if j.publisher == nil {
		return
	}

	for _, entry := range snapshot.Entries {
		if entry.RankChange == 0 {
			continue
		}
		stats.RankChangesFound++

		oldRank := int(entry.Rank) + int(entry.RankChange)
		newRank := int(entry.Rank)

		if entry.RankChange.Abs() >= j.config.MinRankChangeForEvent {
			event := shared.NewRankChangedEvent(entry.ProfileID, board.String(), oldRank, newRank)
			if err := j.publisher.Publish(event); err == nil {
				stats.EventsEmitted++
			}
		}

		// Entering the top N is worth celebrating separately.
		topN := j.config.TopNThreshold
		if topN > 0 && newRank <= topN && oldRank > topN {
			event := shared.NewEnteredTopNEvent(entry.ProfileID, board.String(), topN, newRank)
			if err := j.publisher.Publish(event); err == nil {
				stats.EventsEmitted++
			}
		}
	}
}

// loadProfiles reads the board's raw standings from Postgres.
func (j *RebuildLeaderboardsJob) loadProfiles(ctx context.Context, board leaderboard.Board) ([]*profile.Profile, error) {
	limit := j.config.MaxEntries
	if limit <= 0 {
		limit = 1000
	}

	switch board {
	case leaderboard.BoardStreak:
		return j.profiles.TopByStreak(ctx, limit)
	default:
		return j.profiles.TopByCoins(ctx, limit)
	}
}

// scoreFor maps a profile to its score on the given board.
func scoreFor(board leaderboard.Board, p *profile.Profile) leaderboard.Score {
	if board == leaderboard.BoardStreak {
		return leaderboard.Score(p.CurrentStreak)
	}
	return leaderboard.Score(p.TotalCoins)
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardsJob) LastRebuildStats() *RebuildStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
