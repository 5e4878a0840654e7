// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ProfileID represents a unique user profile identifier (UUID format).
type ProfileID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the profile ID is a valid UUID.
func (p ProfileID) IsValid() bool {
	return uuidRegex.MatchString(string(p))
}

// String returns the string representation.
func (p ProfileID) String() string {
	return string(p)
}

// IsEmpty checks if the ID is empty.
func (p ProfileID) IsEmpty() bool {
	return p == ""
}

// NewProfileID creates a new ProfileID with validation.
func NewProfileID(id string) (ProfileID, error) {
	pid := ProfileID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", NewDomainError("shared", "NewProfileID", ErrInvalidID, "invalid profile ID format")
	}
	return pid, nil
}

// Email represents a user's email address.
type Email string

// Simple email validation - full validation happens at the auth provider.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email address has a plausible format.
func (e Email) IsValid() bool {
	s := string(e)
	return len(s) >= 5 && len(s) <= 254 && emailRegex.MatchString(s)
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a lowercased, trimmed version of the email.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a new Email with validation.
func NewEmail(value string) (Email, error) {
	e := Email(value).Normalize()
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Coins Value Object (in-app currency)
// ═══════════════════════════════════════════════════════════════════════════

// Coins represents a user's coin balance. Never negative.
type Coins int

// IsValid checks that the balance is non-negative.
func (c Coins) IsValid() bool {
	return c >= 0
}

// Int returns the underlying int value.
func (c Coins) Int() int {
	return int(c)
}

// Add credits coins and returns the new balance.
func (c Coins) Add(amount int) Coins {
	result := Coins(int(c) + amount)
	if result < 0 {
		return 0
	}
	return result
}

// CanAfford reports whether the balance covers the given cost.
func (c Coins) CanAfford(cost int) bool {
	return int(c) >= cost
}

// Spend debits coins. Returns an error if the balance is insufficient,
// so the balance invariant (never negative) cannot be violated.
func (c Coins) Spend(cost int) (Coins, error) {
	if cost < 0 {
		return c, NewDomainError("shared", "Spend", ErrNegativeValue, "cost cannot be negative")
	}
	if !c.CanAfford(cost) {
		return c, ErrInsufficientFunds
	}
	return Coins(int(c) - cost), nil
}

// NewCoins creates a Coins value with validation.
func NewCoins(amount int) (Coins, error) {
	if amount < 0 {
		return 0, NewDomainError("shared", "NewCoins", ErrNegativeValue, "coins cannot be negative")
	}
	return Coins(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned by a user.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 1000000 // 1 million XP cap
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	if result < MinXP {
		return MinXP
	}
	return result
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a user's level.
//
// The threshold for advancing from level L to L+1 is L*100 experience
// points. The level itself never changes implicitly: ProgressRatio is a
// derived display value, and level increments only happen through explicit
// administrative action.
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 100
)

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// NextThreshold returns the XP required to advance past this level.
func (l Level) NextThreshold() int {
	if l < MinLevel {
		return int(MinLevel) * 100
	}
	return int(l) * 100
}

// ProgressRatio returns the fraction of the way to the next level,
// given the user's current experience points. Clamped to [0, 1].
func (l Level) ProgressRatio(xp XP) float64 {
	threshold := l.NextThreshold()
	if threshold <= 0 {
		return 1
	}
	ratio := float64(xp) / float64(threshold)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// ThresholdReached reports whether the XP total has crossed the threshold
// for the next level.
func (l Level) ThresholdReached(xp XP) bool {
	return int(xp) >= l.NextThreshold()
}

// Title returns a human-readable title for the level.
func (l Level) Title() string {
	switch {
	case l < 5:
		return "Новичок"
	case l < 10:
		return "Ученик"
	case l < 20:
		return "Знаток"
	case l < 30:
		return "Практик"
	case l < 50:
		return "Инвестор"
	case l < 75:
		return "Эксперт"
	default:
		return "Магнат"
	}
}

// NewLevel creates a Level with validation.
func NewLevel(value int) (Level, error) {
	l := Level(value)
	if !l.IsValid() {
		return 0, NewDomainError("shared", "NewLevel", ErrValueOutOfRange, "level out of range")
	}
	return l, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object (lesson progress)
// ═══════════════════════════════════════════════════════════════════════════

// Percent represents completion progress in the range [0, 100].
type Percent int

const (
	MinPercent Percent = 0
	MaxPercent Percent = 100
)

// IsValid checks if the percent value is within range.
func (p Percent) IsValid() bool {
	return p >= MinPercent && p <= MaxPercent
}

// Int returns the underlying int value.
func (p Percent) Int() int {
	return int(p)
}

// IsComplete reports whether progress has reached 100.
func (p Percent) IsComplete() bool {
	return p >= MaxPercent
}

// Advance adds an increment and clamps at 100. Progress never decreases:
// a non-positive increment leaves the value unchanged.
func (p Percent) Advance(increment int) Percent {
	if increment <= 0 {
		return p
	}
	result := Percent(int(p) + increment)
	if result > MaxPercent {
		return MaxPercent
	}
	return result
}

// NewPercent creates a Percent with validation.
func NewPercent(value int) (Percent, error) {
	p := Percent(value)
	if !p.IsValid() {
		return 0, NewDomainError("shared", "NewPercent", ErrValueOutOfRange, "percent must be between 0 and 100")
	}
	return p, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Plan Value Object (subscription tiers)
// ═══════════════════════════════════════════════════════════════════════════

// Plan represents a subscription plan tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// IsValid checks if the plan is a known tier.
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPremium:
		return true
	}
	return false
}

// String returns the string representation.
func (p Plan) String() string {
	return string(p)
}

// Tier returns the ordering of the plan (higher is better).
func (p Plan) Tier() int {
	switch p {
	case PlanBasic:
		return 1
	case PlanPremium:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether this plan meets or exceeds the required tier.
func (p Plan) AtLeast(required Plan) bool {
	return p.Tier() >= required.Tier()
}

// NewPlan creates a Plan with validation.
func NewPlan(value string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", ErrInvalidPlan
	}
	return p, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a user's position in a leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the user is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// IsTop10 checks if in top 10.
func (r Rank) IsTop10() bool {
	return r.IsTop(10)
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// Compare returns the difference between two ranks.
// Positive value means improvement (moved up), negative means dropped.
func (r Rank) Compare(other Rank) int {
	return int(other) - int(r)
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Slug Value Object (catalog identifiers)
// ═══════════════════════════════════════════════════════════════════════════

// Slug represents a stable, human-readable catalog identifier.
type Slug string

// Slug format: category-name-number (e.g., "budgeting-intro-01").
var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// IsValid checks if the slug format is valid.
func (s Slug) IsValid() bool {
	v := string(s)
	return len(v) >= 3 && len(v) <= 50 && slugRegex.MatchString(v)
}

// String returns the string representation.
func (s Slug) String() string {
	return string(s)
}

// Category extracts the leading category segment from the slug.
func (s Slug) Category() string {
	parts := strings.Split(string(s), "-")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// NewSlug creates a new Slug with validation.
func NewSlug(value string) (Slug, error) {
	s := Slug(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", NewDomainError("shared", "NewSlug", ErrInvalidID, "invalid slug format")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// Today returns a TimeRange for the current UTC day.
func Today() TimeRange {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour).Add(-time.Nanosecond)
	return TimeRange{From: start, To: end}
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now().UTC()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}

// String implements fmt.Stringer for logging.
func (p Pagination) String() string {
	return fmt.Sprintf("page=%d size=%d", p.Page, p.PageSize)
}
