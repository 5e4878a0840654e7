package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/luckcash/luckcash-server/pkg/timeutil"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY TRACKER ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrActivityProfileIDEmpty is returned when profile ID is empty.
	ErrActivityProfileIDEmpty = errors.New("activity_tracker: profile ID cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY INFO STRUCTURE
// ══════════════════════════════════════════════════════════════════════════════

// ActivityInfo contains the latest recorded activity for a profile.
// The streak maintenance job consults it before breaking a streak, and
// the stats rollup uses the day marker to count daily active profiles.
type ActivityInfo struct {
	// ProfileID is the unique identifier of the profile.
	ProfileID string `json:"profile_id"`

	// LastActionAt is the timestamp of the last recorded action.
	LastActionAt time.Time `json:"last_action_at"`

	// LastAction names the action that was recorded (lesson_completed,
	// mission_claimed, purchase, login).
	LastAction string `json:"last_action,omitempty"`

	// Day is the UTC day the activity belongs to.
	Day time.Time `json:"day"`
}

// ActiveToday reports whether the activity falls on the given UTC day.
func (a *ActivityInfo) ActiveToday(now time.Time) bool {
	return timeutil.StartOfDay(a.LastActionAt).Equal(timeutil.StartOfDay(now))
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY EVENT STRUCTURE (for Pub/Sub)
// ══════════════════════════════════════════════════════════════════════════════

// ActivityEvent is broadcast on each first-activity-of-the-day so that
// subscribers can react without polling (stats rollup, streak update).
type ActivityEvent struct {
	// ProfileID is the profile's unique identifier.
	ProfileID string `json:"profile_id"`

	// Action names the recorded action.
	Action string `json:"action"`

	// FirstOfDay is true when this is the first activity of the UTC day.
	FirstOfDay bool `json:"first_of_day"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// ActivityTracker records per-profile activity in Redis so that the streak
// jobs and daily stats never have to scan Postgres for "who was active".
//
// Architecture:
//   - Each profile has a key "activity:{profile_id}" holding ActivityInfo
//   - A sorted set "activity:all" tracks profiles by last action timestamp
//   - Pub/Sub channel "pubsub:activity" broadcasts first-of-day activity
type ActivityTracker struct {
	cache *Cache
}

// Key names for activity tracking.
const (
	// keyActivityAll is the sorted set of all recently active profiles.
	keyActivityAll = "activity:all"

	// keyActivityPrefix is the prefix for per-profile activity keys.
	keyActivityPrefix = "activity:"

	// channelActivity is the Pub/Sub channel for activity events.
	channelActivity = "pubsub:activity"

	// activityRetention is how long per-profile activity keys live. Two
	// days covers the grace-day streak policy across a day boundary.
	activityRetention = 48 * time.Hour
)

// NewActivityTracker creates a new ActivityTracker instance.
func NewActivityTracker(cache *Cache) *ActivityTracker {
	return &ActivityTracker{cache: cache}
}

func activityKey(profileID string) string {
	return keyActivityPrefix + profileID
}

// ══════════════════════════════════════════════════════════════════════════════
// CORE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Record registers an action for a profile. Called from the middleware on
// every authenticated request and from command handlers on domain actions.
func (t *ActivityTracker) Record(ctx context.Context, profileID, action string) error {
	if profileID == "" {
		return ErrActivityProfileIDEmpty
	}

	now := time.Now().UTC()
	day := timeutil.StartOfDay(now)

	previous, err := t.GetInfo(ctx, profileID)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		return err
	}
	firstOfDay := previous == nil || !previous.Day.Equal(day)

	info := ActivityInfo{
		ProfileID:    profileID,
		LastActionAt: now,
		LastAction:   action,
		Day:          day,
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal activity info: %w", err)
	}

	pipe := t.cache.Client().Pipeline()
	pipe.Set(ctx, activityKey(profileID), data, activityRetention)
	pipe.ZAdd(ctx, keyActivityAll, redis.Z{
		Score:  float64(now.Unix()),
		Member: profileID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	if firstOfDay {
		t.publishEvent(ctx, ActivityEvent{
			ProfileID:  profileID,
			Action:     action,
			FirstOfDay: true,
			Timestamp:  now,
		})
	}

	return nil
}

// Forget removes a profile from activity tracking (account deletion).
func (t *ActivityTracker) Forget(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrActivityProfileIDEmpty
	}

	pipe := t.cache.Client().Pipeline()
	pipe.Del(ctx, activityKey(profileID))
	pipe.ZRem(ctx, keyActivityAll, profileID)
	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetInfo retrieves the latest activity info for a profile.
func (t *ActivityTracker) GetInfo(ctx context.Context, profileID string) (*ActivityInfo, error) {
	if profileID == "" {
		return nil, ErrActivityProfileIDEmpty
	}

	data, err := t.cache.Client().Get(ctx, activityKey(profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var info ActivityInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity info: %w", err)
	}

	return &info, nil
}

// WasActiveToday reports whether the profile acted during the current UTC day.
func (t *ActivityTracker) WasActiveToday(ctx context.Context, profileID string) (bool, error) {
	info, err := t.GetInfo(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return info.ActiveToday(time.Now().UTC()), nil
}

// GetActiveSince returns IDs of profiles active within the given window.
func (t *ActivityTracker) GetActiveSince(ctx context.Context, window time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-window).Unix()

	profileIDs, err := t.cache.Client().ZRangeByScore(ctx, keyActivityAll, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active profiles: %w", err)
	}

	return profileIDs, nil
}

// GetActiveCount returns the number of profiles active within the window.
func (t *ActivityTracker) GetActiveCount(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window).Unix()

	return t.cache.Client().ZCount(ctx, keyActivityAll,
		strconv.FormatInt(cutoff, 10), "+inf").Result()
}

// GetInfoBatch retrieves ActivityInfo for multiple profiles via MGET.
func (t *ActivityTracker) GetInfoBatch(ctx context.Context, profileIDs []string) ([]ActivityInfo, error) {
	if len(profileIDs) == 0 {
		return []ActivityInfo{}, nil
	}

	keys := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		keys[i] = activityKey(id)
	}

	values, err := t.cache.Client().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]ActivityInfo, 0, len(profileIDs))
	for _, val := range values {
		if val == nil {
			continue
		}

		var info ActivityInfo
		if err := json.Unmarshal([]byte(val.(string)), &info); err != nil {
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Subscribe creates a subscription to activity events.
// Remember to call Close() on the returned PubSub when done.
func (t *ActivityTracker) Subscribe(ctx context.Context) *redis.PubSub {
	return t.cache.Client().Subscribe(ctx, channelActivity)
}

// SubscribeWithHandler subscribes to activity events and calls handler for
// each event. This is a blocking operation and should be run in a goroutine.
func (t *ActivityTracker) SubscribeWithHandler(ctx context.Context, handler func(ActivityEvent)) error {
	pubsub := t.Subscribe(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}

			var event ActivityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // Skip malformed messages
			}

			handler(event)
		}
	}
}

// publishEvent publishes an activity event.
func (t *ActivityTracker) publishEvent(ctx context.Context, event ActivityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	// Fire and forget - don't block on publish errors
	_ = t.cache.Client().Publish(ctx, channelActivity, data).Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CleanupStale removes entries older than the retention window from the
// activity set. Run periodically by the worker.
func (t *ActivityTracker) CleanupStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-activityRetention).Unix()

	removed, err := t.cache.Client().ZRemRangeByScore(ctx, keyActivityAll,
		"-inf", strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale entries: %w", err)
	}

	return removed, nil
}
