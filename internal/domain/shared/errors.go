// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Progression errors
	ErrIneligibleClaim   = errors.New("claim requirements not met")
	ErrInsufficientFunds = errors.New("insufficient coin balance")
	ErrOutOfStock        = errors.New("item out of stock")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Infrastructure errors
	ErrStoreWrite         = errors.New("store write failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "profile", "progression", "catalog"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Profile domain errors
var (
	ErrProfileNotFound      = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrProfileAlreadyExists = NewDomainError("profile", "Create", ErrAlreadyExists, "profile already exists")
	ErrEmailAlreadyTaken    = NewDomainError("profile", "Register", ErrAlreadyExists, "email already registered")
	ErrInvalidEmail         = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid email address")
	ErrInvalidDisplayName   = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid display name")
	ErrInvalidPlan          = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid subscription plan")
	ErrProfileVersionStale  = NewDomainError("profile", "Update", ErrOptimisticLock, "profile was modified concurrently")
)

// Catalog domain errors
var (
	ErrLessonNotFound    = NewDomainError("catalog", "FindLesson", ErrNotFound, "lesson not found")
	ErrMissionNotFound   = NewDomainError("catalog", "FindMission", ErrNotFound, "mission not found")
	ErrStoreItemNotFound = NewDomainError("catalog", "FindStoreItem", ErrNotFound, "store item not found")
	ErrAchievementNotFound = NewDomainError("catalog", "FindAchievement", ErrNotFound, "achievement not found")
	ErrInvalidDifficulty = NewDomainError("catalog", "Validate", ErrInvalidInput, "invalid lesson difficulty")
	ErrInvalidCategory   = NewDomainError("catalog", "Validate", ErrInvalidInput, "invalid category")
	ErrPlanTooLow        = NewDomainError("catalog", "Access", ErrForbidden, "content requires a higher plan")
)

// Progression domain errors
var (
	ErrMissionNotAssigned    = NewDomainError("progression", "ClaimMission", ErrNotFound, "mission not assigned for today")
	ErrMissionIncomplete     = NewDomainError("progression", "ClaimMission", ErrIneligibleClaim, "mission target not reached")
	ErrMissionAlreadyClaimed = NewDomainError("progression", "ClaimMission", ErrIneligibleClaim, "mission reward already claimed")
	ErrNotEnoughCoins        = NewDomainError("progression", "Purchase", ErrInsufficientFunds, "not enough coins for this purchase")
	ErrItemOutOfStock        = NewDomainError("progression", "Purchase", ErrOutOfStock, "store item is out of stock")
	ErrPurchaseNotFound      = NewDomainError("progression", "FindPurchase", ErrNotFound, "purchase not found")
	ErrAlreadyRedeemed       = NewDomainError("progression", "Redeem", ErrAlreadyProcessed, "purchase already redeemed")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidBoard        = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard kind")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// Auth domain errors
var (
	ErrInvalidCredentials = NewDomainError("auth", "SignIn", ErrUnauthorized, "invalid email or password")
	ErrSessionExpired     = NewDomainError("auth", "Verify", ErrExpired, "session token expired")
	ErrInvalidToken       = NewDomainError("auth", "Verify", ErrUnauthorized, "invalid session token")
	ErrWeakPassword       = NewDomainError("auth", "SignUp", ErrInvalidInput, "password does not meet requirements")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsIneligible checks if the error means a claim or purchase precondition failed.
func IsIneligible(err error) bool {
	return errors.Is(err, ErrIneligibleClaim) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrOutOfStock)
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}
