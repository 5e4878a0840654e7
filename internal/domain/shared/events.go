// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Profile events
	EventProfileRegistered EventType = "profile.registered"
	EventProfileUpdated    EventType = "profile.updated"
	EventPlanChanged       EventType = "profile.plan_changed"

	// Progression events
	EventLessonCompleted  EventType = "progression.lesson_completed"
	EventLessonProgressed EventType = "progression.lesson_progressed"
	EventMissionClaimed   EventType = "progression.mission_claimed"
	EventPurchaseMade     EventType = "progression.purchase_made"
	EventPurchaseRedeemed EventType = "progression.purchase_redeemed"
	EventCoinsGained      EventType = "progression.coins_gained"
	EventXPGained         EventType = "progression.xp_gained"
	EventLevelUp          EventType = "progression.level_up"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakBroken   EventType = "streak.broken"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventEnteredTopN        EventType = "leaderboard.entered_top_n"
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// System events
	EventDailyMissionsReset EventType = "system.daily_missions_reset"
	EventStatsRolledUp      EventType = "system.stats_rolled_up"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileRegisteredEvent is emitted when a new user registers.
type ProfileRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
}

// Payload implements Event interface.
func (e ProfileRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"plan":         e.Plan,
	}
}

// NewProfileRegisteredEvent creates a new ProfileRegisteredEvent.
func NewProfileRegisteredEvent(profileID, email, displayName, plan string) ProfileRegisteredEvent {
	return ProfileRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventProfileRegistered, profileID),
		Email:       email,
		DisplayName: displayName,
		Plan:        plan,
	}
}

// PlanChangedEvent is emitted when a user switches subscription plan.
type PlanChangedEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	OldPlan   string `json:"old_plan"`
	NewPlan   string `json:"new_plan"`
}

// Payload implements Event interface.
func (e PlanChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"old_plan":   e.OldPlan,
		"new_plan":   e.NewPlan,
	}
}

// NewPlanChangedEvent creates a new PlanChangedEvent.
func NewPlanChangedEvent(profileID, oldPlan, newPlan string) PlanChangedEvent {
	return PlanChangedEvent{
		BaseEvent: NewBaseEvent(EventPlanChanged, profileID),
		ProfileID: profileID,
		OldPlan:   oldPlan,
		NewPlan:   newPlan,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a user completes a lesson for the
// first time. Repeat completions are idempotent and emit nothing.
type LessonCompletedEvent struct {
	BaseEvent
	ProfileID   string `json:"profile_id"`
	LessonID    string `json:"lesson_id"`
	CoinsEarned int    `json:"coins_earned"`
	XPEarned    int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":   e.ProfileID,
		"lesson_id":    e.LessonID,
		"coins_earned": e.CoinsEarned,
		"xp_earned":    e.XPEarned,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(profileID, lessonID string, coins, xp int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:   NewBaseEvent(EventLessonCompleted, profileID),
		ProfileID:   profileID,
		LessonID:    lessonID,
		CoinsEarned: coins,
		XPEarned:    xp,
	}
}

// LessonProgressedEvent is emitted when partial lesson progress advances.
type LessonProgressedEvent struct {
	BaseEvent
	ProfileID   string `json:"profile_id"`
	LessonID    string `json:"lesson_id"`
	OldProgress int    `json:"old_progress"`
	NewProgress int    `json:"new_progress"`
}

// Payload implements Event interface.
func (e LessonProgressedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":   e.ProfileID,
		"lesson_id":    e.LessonID,
		"old_progress": e.OldProgress,
		"new_progress": e.NewProgress,
	}
}

// NewLessonProgressedEvent creates a new LessonProgressedEvent.
func NewLessonProgressedEvent(profileID, lessonID string, oldProgress, newProgress int) LessonProgressedEvent {
	return LessonProgressedEvent{
		BaseEvent:   NewBaseEvent(EventLessonProgressed, profileID),
		ProfileID:   profileID,
		LessonID:    lessonID,
		OldProgress: oldProgress,
		NewProgress: newProgress,
	}
}

// MissionClaimedEvent is emitted when a daily mission reward is claimed.
type MissionClaimedEvent struct {
	BaseEvent
	ProfileID   string `json:"profile_id"`
	MissionID   string `json:"mission_id"`
	Day         string `json:"day"` // YYYY-MM-DD
	CoinsEarned int    `json:"coins_earned"`
	XPEarned    int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e MissionClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":   e.ProfileID,
		"mission_id":   e.MissionID,
		"day":          e.Day,
		"coins_earned": e.CoinsEarned,
		"xp_earned":    e.XPEarned,
	}
}

// NewMissionClaimedEvent creates a new MissionClaimedEvent.
func NewMissionClaimedEvent(profileID, missionID, day string, coins, xp int) MissionClaimedEvent {
	return MissionClaimedEvent{
		BaseEvent:   NewBaseEvent(EventMissionClaimed, profileID),
		ProfileID:   profileID,
		MissionID:   missionID,
		Day:         day,
		CoinsEarned: coins,
		XPEarned:    xp,
	}
}

// PurchaseMadeEvent is emitted when a store item is purchased.
type PurchaseMadeEvent struct {
	BaseEvent
	ProfileID  string `json:"profile_id"`
	ItemID     string `json:"item_id"`
	PurchaseID string `json:"purchase_id"`
	CoinsSpent int    `json:"coins_spent"`
}

// Payload implements Event interface.
func (e PurchaseMadeEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":  e.ProfileID,
		"item_id":     e.ItemID,
		"purchase_id": e.PurchaseID,
		"coins_spent": e.CoinsSpent,
	}
}

// NewPurchaseMadeEvent creates a new PurchaseMadeEvent.
func NewPurchaseMadeEvent(profileID, itemID, purchaseID string, coinsSpent int) PurchaseMadeEvent {
	return PurchaseMadeEvent{
		BaseEvent:  NewBaseEvent(EventPurchaseMade, profileID),
		ProfileID:  profileID,
		ItemID:     itemID,
		PurchaseID: purchaseID,
		CoinsSpent: coinsSpent,
	}
}

// XPGainedEvent is emitted when a user gains experience points.
type XPGainedEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // e.g., "lesson", "mission"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(profileID string, amount, newTotal int, source string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, profileID),
		ProfileID: profileID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a user's level increases.
type LevelUpEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(profileID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, profileID),
		ProfileID: profileID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakExtendedEvent is emitted when a user's daily streak grows.
type StreakExtendedEvent struct {
	BaseEvent
	ProfileID     string `json:"profile_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":     e.ProfileID,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(profileID string, current, longest int) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:     NewBaseEvent(EventStreakExtended, profileID),
		ProfileID:     profileID,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// StreakBrokenEvent is emitted when a user's daily streak resets.
type StreakBrokenEvent struct {
	BaseEvent
	ProfileID      string `json:"profile_id"`
	PreviousStreak int    `json:"previous_streak"`
	DaysMissed     int    `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":      e.ProfileID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(profileID string, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, profileID),
		ProfileID:      profileID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a user unlocks an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	ProfileID     string `json:"profile_id"`
	AchievementID string `json:"achievement_id"`
	CoinsEarned   int    `json:"coins_earned"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":     e.ProfileID,
		"achievement_id": e.AchievementID,
		"coins_earned":   e.CoinsEarned,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(profileID, achievementID string, coins int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, profileID),
		ProfileID:     profileID,
		AchievementID: achievementID,
		CoinsEarned:   coins,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedEvent is emitted when a user's rank changes.
type RankChangedEvent struct {
	BaseEvent
	ProfileID  string `json:"profile_id"`
	Board      string `json:"board"` // "coins" or "streak"
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	RankChange int    `json:"rank_change"` // Positive = moved up, Negative = moved down
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":  e.ProfileID,
		"board":       e.Board,
		"old_rank":    e.OldRank,
		"new_rank":    e.NewRank,
		"rank_change": e.RankChange,
	}
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(profileID, board string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent:  NewBaseEvent(EventRankChanged, profileID),
		ProfileID:  profileID,
		Board:      board,
		OldRank:    oldRank,
		NewRank:    newRank,
		RankChange: oldRank - newRank, // Positive means moved up
	}
}

// MovedUp returns true if the user moved up in rank.
func (e RankChangedEvent) MovedUp() bool {
	return e.RankChange > 0
}

// EnteredTopNEvent is emitted when a user enters the top N of a board.
type EnteredTopNEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	Board     string `json:"board"`
	TopN      int    `json:"top_n"`
	NewRank   int    `json:"new_rank"`
}

// Payload implements Event interface.
func (e EnteredTopNEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"board":      e.Board,
		"top_n":      e.TopN,
		"new_rank":   e.NewRank,
	}
}

// NewEnteredTopNEvent creates a new EnteredTopNEvent.
func NewEnteredTopNEvent(profileID, board string, topN, newRank int) EnteredTopNEvent {
	return EnteredTopNEvent{
		BaseEvent: NewBaseEvent(EventEnteredTopN, profileID),
		ProfileID: profileID,
		Board:     board,
		TopN:      topN,
		NewRank:   newRank,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// DailyMissionsResetEvent is emitted when the daily mission set rolls over.
type DailyMissionsResetEvent struct {
	BaseEvent
	Day          string `json:"day"` // YYYY-MM-DD
	MissionCount int    `json:"mission_count"`
}

// Payload implements Event interface.
func (e DailyMissionsResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"day":           e.Day,
		"mission_count": e.MissionCount,
	}
}

// NewDailyMissionsResetEvent creates a new DailyMissionsResetEvent.
func NewDailyMissionsResetEvent(day string, missionCount int) DailyMissionsResetEvent {
	return DailyMissionsResetEvent{
		BaseEvent:    NewBaseEvent(EventDailyMissionsReset, day),
		Day:          day,
		MissionCount: missionCount,
	}
}

// StatsRolledUpEvent is emitted after the daily stats snapshot completes.
type StatsRolledUpEvent struct {
	BaseEvent
	Day           string `json:"day"`
	ProfilesCount int    `json:"profiles_count"`
}

// Payload implements Event interface.
func (e StatsRolledUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"day":            e.Day,
		"profiles_count": e.ProfilesCount,
	}
}

// NewStatsRolledUpEvent creates a new StatsRolledUpEvent.
func NewStatsRolledUpEvent(day string, profilesCount int) StatsRolledUpEvent {
	return StatsRolledUpEvent{
		BaseEvent:     NewBaseEvent(EventStatsRolledUp, day),
		Day:           day,
		ProfilesCount: profilesCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
