package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestManager(t *testing.T, accessTTL time.Duration) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenManagerParams{
		Secret:    "test-secret-for-tokens",
		Issuer:    "luckcash-test",
		AccessTTL: accessTTL,
	})
	assert.NoError(t, err)
	return m
}

func TestTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(TokenManagerParams{})
	assert.ErrorIs(t, err, ErrSecretEmpty)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	pair, err := m.Issue("profile-1", "user", "premium")
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := m.Verify(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "profile-1", claims.ProfileID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "premium", claims.Plan)
}

func TestRefreshTokenOmitsRoleAndPlan(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	pair, err := m.Issue("profile-1", "admin", "basic")
	assert.NoError(t, err)

	claims, err := m.Verify(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, "profile-1", claims.ProfileID)
	assert.Empty(t, claims.Role)
	assert.Empty(t, claims.Plan)
}

func TestExpiredToken(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	pair, err := m.Issue("profile-1", "user", "free")
	assert.NoError(t, err)

	_, err = m.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecret(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)
	pair, err := m.Issue("profile-1", "user", "free")
	assert.NoError(t, err)

	other, err := NewTokenManager(TokenManagerParams{
		Secret: "a-different-secret",
		Issuer: "luckcash-test",
	})
	assert.NoError(t, err)

	_, err = other.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMalformedToken(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestPasswordHashAndVerify(t *testing.T) {
	h := NewPasswordHasher(4) // min cost keeps the test fast

	hash, err := h.Hash("correct horse battery")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, h.Verify(hash, "correct horse battery"))
	assert.ErrorIs(t, h.Verify(hash, "wrong password"), ErrPasswordMismatch)
}

func TestPasswordLengthLimits(t *testing.T) {
	h := NewPasswordHasher(4)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err = h.Hash(string(long))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
