package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	redisinfra "github.com/luckcash/luckcash-server/internal/infrastructure/persistence/redis"
	"github.com/luckcash/luckcash-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH SERVICE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidCredentials is returned on a failed sign-in. It deliberately
	// does not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrSessionNotFound is returned when a refresh targets a revoked session.
	ErrSessionNotFound = errors.New("auth: session not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// session is what we keep in Redis per signed-in profile. One session per
// profile: a new sign-in invalidates the previous refresh token.
type session struct {
	ProfileID    string    `json:"profile_id"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service implements sign-up, sign-in, refresh and sign-out.
type Service struct {
	profiles profile.Repository
	hasher   *PasswordHasher
	tokens   *TokenManager
	cache    *redisinfra.Cache
	log      *logger.Logger
}

// ServiceParams groups the dependencies of the auth Service.
type ServiceParams struct {
	Profiles profile.Repository
	Hasher   *PasswordHasher
	Tokens   *TokenManager
	Cache    *redisinfra.Cache
	Logger   *logger.Logger
}

// NewService creates the auth Service.
func NewService(params ServiceParams) *Service {
	log := params.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Service{
		profiles: params.Profiles,
		hasher:   params.Hasher,
		tokens:   params.Tokens,
		cache:    params.Cache,
		log:      log,
	}
}

// SignUp registers a new profile and signs it in.
func (s *Service) SignUp(ctx context.Context, emailRaw, password, displayName string) (*profile.Profile, *TokenPair, error) {
	email, err := shared.NewEmail(emailRaw)
	if err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	p, err := profile.NewProfile(profile.NewProfileParams{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, nil, err
	}

	s.log.Info("profile registered",
		logger.ProfileID(p.ID),
	)

	pair, err := s.startSession(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	return p, pair, nil
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, emailRaw, password string) (*profile.Profile, *TokenPair, error) {
	email, err := shared.NewEmail(emailRaw)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := s.hasher.Verify(p.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			s.log.Warn("failed sign-in attempt",
				logger.ProfileID(p.ID),
			)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	pair, err := s.startSession(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	return p, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
// Tokens rotate: the old refresh token stops working immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	var sess session
	if err := s.cache.Get(ctx, redisinfra.SessionKey(claims.ProfileID), &sess); err != nil {
		if errors.Is(err, redisinfra.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.RefreshToken != refreshToken {
		// Rotated or revoked token being replayed.
		return nil, ErrSessionNotFound
	}

	// Role and plan are re-read so a plan change takes effect on refresh.
	p, err := s.profiles.GetByID(ctx, claims.ProfileID)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, p)
}

// SignOut revokes the profile's session.
func (s *Service) SignOut(ctx context.Context, profileID string) error {
	if err := s.cache.Delete(ctx, redisinfra.SessionKey(profileID)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.log.Info("profile signed out",
		logger.ProfileID(profileID),
	)
	return nil
}

// startSession issues a token pair and stores the refresh token in Redis.
func (s *Service) startSession(ctx context.Context, p *profile.Profile) (*TokenPair, error) {
	pair, err := s.tokens.Issue(p.ID, string(p.Role), string(p.Plan))
	if err != nil {
		return nil, err
	}

	sess := session{
		ProfileID:    p.ID,
		RefreshToken: pair.RefreshToken,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, redisinfra.SessionKey(p.ID), sess, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return pair, nil
}
