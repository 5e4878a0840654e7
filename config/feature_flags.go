package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, plan targeting, and per-user overrides.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // profileID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Plan targeting (e.g., "gold", "platinum")
	// Empty means all plans
	TargetPlans []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	ProfileID string // Profile UUID

	Plan    string // Subscription plan (e.g., "silver", "gold")
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardCoins   = "leaderboard.coins"    // Coins leaderboard
	FeatureLeaderboardStreaks = "leaderboard.streaks"  // Streak leaderboard
	FeatureLeaderboardViewer  = "leaderboard.own_rank" // Show viewer's own rank row

	// === Learning Features ===
	FeatureLearningQuizzes     = "learning.quizzes"      // Quiz steps inside lessons
	FeatureLearningCategories  = "learning.categories"   // Category filter on lesson list
	FeatureLearningPlanPreview = "learning.plan_preview" // Show locked lessons from higher plans

	// === Mission Features ===
	FeatureMissionsDaily     = "missions.daily"      // Daily mission assignment
	FeatureMissionsQuizScore = "missions.quiz_score" // Quiz-score mission type

	// === Store Features ===
	FeatureStorePurchases   = "store.purchases"   // Rewards store
	FeatureStoreRedemptions = "store.redemptions" // Redemption codes for physical rewards

	// === Gamification Features ===
	FeatureGamificationStreaks      = "gamification.streaks"      // Daily streaks
	FeatureGamificationAchievements = "gamification.achievements" // Badges/achievements
	FeatureGamificationLevels       = "gamification.levels"       // XP levels and titles

	// === Experimental Features ===
	FeatureExperimentalPushDigest = "experimental.push_digest" // Daily push summary
	FeatureExperimentalAnalytics  = "experimental.analytics"   // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Leaderboard features - enabled by default
	ff.features[FeatureLeaderboardCoins] = &Feature{
		Name:           FeatureLeaderboardCoins,
		Description:    "Coins leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardStreaks] = &Feature{
		Name:           FeatureLeaderboardStreaks,
		Description:    "Streak leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardViewer] = &Feature{
		Name:           FeatureLeaderboardViewer,
		Description:    "Show viewer's own rank row",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Learning features - core product, enabled by default
	ff.features[FeatureLearningQuizzes] = &Feature{
		Name:           FeatureLearningQuizzes,
		Description:    "Quiz steps inside lessons",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLearningCategories] = &Feature{
		Name:           FeatureLearningCategories,
		Description:    "Category filter on lesson list",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLearningPlanPreview] = &Feature{
		Name:           FeatureLearningPlanPreview,
		Description:    "Preview locked lessons from higher plans",
		Enabled:        true,
		RolloutPercent: 50, // A/B test: does preview drive upgrades?
	}

	// Mission features
	ff.features[FeatureMissionsDaily] = &Feature{
		Name:           FeatureMissionsDaily,
		Description:    "Daily mission assignment",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMissionsQuizScore] = &Feature{
		Name:           FeatureMissionsQuizScore,
		Description:    "Quiz-score mission type",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Store features
	ff.features[FeatureStorePurchases] = &Feature{
		Name:           FeatureStorePurchases,
		Description:    "Rewards store",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureStoreRedemptions] = &Feature{
		Name:           FeatureStoreRedemptions,
		Description:    "Redemption codes for physical rewards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Gamification features
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationAchievements] = &Feature{
		Name:           FeatureGamificationAchievements,
		Description:    "Unlock achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationLevels] = &Feature{
		Name:           FeatureGamificationLevels,
		Description:    "XP levels and titles",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalPushDigest] = &Feature{
		Name:           FeatureExperimentalPushDigest,
		Description:    "Daily push summary",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_STORE_PURCHASES=true
// Example: FEATURE_LEARNING_PLAN_PREVIEW=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "store.purchases" -> "FEATURE_STORE_PURCHASES"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.ProfileID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.ProfileID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check plan targeting
	if len(feature.TargetPlans) > 0 && ctx != nil && ctx.Plan != "" {
		planMatch := false
		for _, p := range feature.TargetPlans {
			if p == ctx.Plan {
				planMatch = true
				break
			}
		}
		if !planMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.ProfileID != "" {
		return ff.isInRollout(ctx.ProfileID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(profileID, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(profileID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.ProfileID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(profileID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[profileID]; !ok {
		ff.userOverrides[profileID] = make(map[string]bool)
	}
	ff.userOverrides[profileID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(profileID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, profileID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// GamificationEnabled checks if any gamification features are enabled.
func (ff *FeatureFlags) GamificationEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureGamificationStreaks, ctx) ||
		ff.IsEnabled(FeatureGamificationAchievements, ctx) ||
		ff.IsEnabled(FeatureGamificationLevels, ctx)
}

// LeaderboardsEnabled checks if any leaderboard is enabled.
func (ff *FeatureFlags) LeaderboardsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureLeaderboardCoins, ctx) ||
		ff.IsEnabled(FeatureLeaderboardStreaks, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
