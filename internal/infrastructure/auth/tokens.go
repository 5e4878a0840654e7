package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrTokenExpired is returned when a token's expiry has passed.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenMalformed is returned when a token cannot be parsed.
	ErrTokenMalformed = errors.New("auth: token malformed")

	// ErrTokenInvalid is returned when a token fails signature or claims checks.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrSecretEmpty is returned when the manager is built without a secret.
	ErrSecretEmpty = errors.New("auth: signing secret cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// CLAIMS
// ══════════════════════════════════════════════════════════════════════════════

// Claims carries the profile identity inside access tokens.
type Claims struct {
	ProfileID string `json:"profile_id"`
	Role      string `json:"role"`
	Plan      string `json:"plan"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful sign-in or refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// TokenManager issues and verifies HMAC-signed JWTs.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// TokenManagerParams configures a TokenManager.
type TokenManagerParams struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(params TokenManagerParams) (*TokenManager, error) {
	if params.Secret == "" {
		return nil, ErrSecretEmpty
	}
	if params.Issuer == "" {
		params.Issuer = "luckcash"
	}
	if params.AccessTTL <= 0 {
		params.AccessTTL = 15 * time.Minute
	}
	if params.RefreshTTL <= 0 {
		params.RefreshTTL = 30 * 24 * time.Hour
	}

	return &TokenManager{
		secret:     []byte(params.Secret),
		issuer:     params.Issuer,
		accessTTL:  params.AccessTTL,
		refreshTTL: params.RefreshTTL,
	}, nil
}

// Issue creates an access/refresh token pair for a profile.
func (m *TokenManager) Issue(profileID, role, plan string) (*TokenPair, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.accessTTL)

	access, err := m.sign(Claims{
		ProfileID: profileID,
		Role:      role,
		Plan:      plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   profileID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	// The refresh token carries only the subject; role and plan are
	// re-read from the profile on refresh so plan changes take effect.
	refresh, err := m.sign(Claims{
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   profileID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// Verify checks a token's signature and expiry and returns its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalid
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ProfileID == "" {
		return nil, fmt.Errorf("%w: profile_id missing", ErrTokenInvalid)
	}

	return claims, nil
}

// RefreshTTL exposes the refresh token lifetime for session storage.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *TokenManager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
