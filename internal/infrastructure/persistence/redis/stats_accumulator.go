package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY STATS ACCUMULATOR
// ══════════════════════════════════════════════════════════════════════════════

// DayCounters are the per-day counters accumulated for one profile.
type DayCounters struct {
	CoinsEarned      int
	XPEarned         int
	LessonsCompleted int
	MissionsClaimed  int
}

// IsZero reports whether nothing was accumulated.
func (c DayCounters) IsZero() bool {
	return c.CoinsEarned == 0 && c.XPEarned == 0 &&
		c.LessonsCompleted == 0 && c.MissionsClaimed == 0
}

// StatsAccumulator collects per-profile daily counters in Redis hashes.
// Event handlers increment counters as progression events arrive; the
// nightly rollup job drains them into the stats_history table.
//
// Key layout: hash "stats:day:{YYYY-MM-DD}:{profile_id}" with fields
// coins, xp, lessons, missions. Keys expire after two days so an
// unprocessed day never leaks memory.
type StatsAccumulator struct {
	cache *Cache
}

const (
	keyStatsDayPrefix = "stats:day:"
	statsRetention    = 48 * time.Hour

	fieldCoins    = "coins"
	fieldXP       = "xp"
	fieldLessons  = "lessons"
	fieldMissions = "missions"
)

// NewStatsAccumulator creates a StatsAccumulator.
func NewStatsAccumulator(cache *Cache) *StatsAccumulator {
	return &StatsAccumulator{cache: cache}
}

func statsKey(profileID string, day time.Time) string {
	return keyStatsDayPrefix + timeutil.DayKey(day) + ":" + profileID
}

// AddLessonCompleted records a completed lesson with its reward.
func (a *StatsAccumulator) AddLessonCompleted(ctx context.Context, profileID string, at time.Time, coins, xp int) error {
	return a.incr(ctx, profileID, at, map[string]int{
		fieldLessons: 1,
		fieldCoins:   coins,
		fieldXP:      xp,
	})
}

// AddMissionClaimed records a claimed mission reward.
func (a *StatsAccumulator) AddMissionClaimed(ctx context.Context, profileID string, at time.Time, coins, xp int) error {
	return a.incr(ctx, profileID, at, map[string]int{
		fieldMissions: 1,
		fieldCoins:    coins,
		fieldXP:       xp,
	})
}

// AddReward records a reward that is not tied to a lesson or mission
// (achievement unlocks).
func (a *StatsAccumulator) AddReward(ctx context.Context, profileID string, at time.Time, coins, xp int) error {
	return a.incr(ctx, profileID, at, map[string]int{
		fieldCoins: coins,
		fieldXP:    xp,
	})
}

func (a *StatsAccumulator) incr(ctx context.Context, profileID string, at time.Time, fields map[string]int) error {
	if profileID == "" {
		return ErrCacheKeyEmpty
	}

	key := statsKey(profileID, at)

	pipe := a.cache.Client().Pipeline()
	for field, delta := range fields {
		if delta != 0 {
			pipe.HIncrBy(ctx, key, field, int64(delta))
		}
	}
	pipe.Expire(ctx, key, statsRetention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to accumulate stats: %w", err)
	}
	return nil
}

// Get returns the accumulated counters for a profile and day.
// A missing key yields zero counters, not an error.
func (a *StatsAccumulator) Get(ctx context.Context, profileID string, day time.Time) (DayCounters, error) {
	values, err := a.cache.HGetAll(ctx, statsKey(profileID, day))
	if err != nil {
		return DayCounters{}, err
	}

	return DayCounters{
		CoinsEarned:      atoiField(values, fieldCoins),
		XPEarned:         atoiField(values, fieldXP),
		LessonsCompleted: atoiField(values, fieldLessons),
		MissionsClaimed:  atoiField(values, fieldMissions),
	}, nil
}

// Clear removes the counters for a profile and day after rollup.
func (a *StatsAccumulator) Clear(ctx context.Context, profileID string, day time.Time) error {
	return a.cache.Delete(ctx, statsKey(profileID, day))
}

func atoiField(values map[string]string, field string) int {
	v, ok := values[field]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
