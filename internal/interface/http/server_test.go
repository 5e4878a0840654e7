package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/internal/infrastructure/auth"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	return NewServer(config, Dependencies{})
}

// ──────────────────────────────────────────────────────────────────────────────
// Domain error mapping
// ──────────────────────────────────────────────────────────────────────────────

func TestWriteDomainError_StatusMapping(t *testing.T) {
	server := newTestServer(t)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.ErrValidation, http.StatusBadRequest, "invalid_request"},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"plan gate", shared.ErrPlanTooLow, http.StatusForbidden, "forbidden"},
		{"missing lesson", shared.ErrLessonNotFound, http.StatusNotFound, "not_found"},
		{"foreign purchase", shared.ErrPurchaseNotFound, http.StatusNotFound, "not_found"},
		{"double redeem", shared.ErrAlreadyRedeemed, http.StatusConflict, "already_processed"},
		{"mission incomplete", shared.ErrMissionIncomplete, http.StatusUnprocessableEntity, "requirements_not_met"},
		{"not enough coins", shared.ErrNotEnoughCoins, http.StatusUnprocessableEntity, "requirements_not_met"},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{"unknown error", assertAnError(), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			server.writeDomainError(rec, req, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var body JSONResponse
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.wantCode, body.Error.Code)
		})
	}
}

func TestWriteDomainError_InternalDetailsDoNotLeak(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	server.writeDomainError(rec, req, assertAnError())

	var body JSONResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body.Error.Message, "dial tcp")
	assert.Equal(t, "An unexpected error occurred", body.Error.Message)
}

// assertAnError mimics an infrastructure failure no switch arm recognizes.
func assertAnError() error {
	return &infraError{}
}

type infraError struct{}

func (e *infraError) Error() string { return "dial tcp 10.0.0.1:5432: connect: connection refused" }

// ──────────────────────────────────────────────────────────────────────────────
// Query parameter helpers
// ──────────────────────────────────────────────────────────────────────────────

func TestGetQueryParamHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/lessons?category=saving&limit=25&desc=true&bad=abc", nil)

	assert.Equal(t, "saving", getQueryParam(req, "category", "all"))
	assert.Equal(t, "all", getQueryParam(req, "missing", "all"))

	assert.Equal(t, 25, getQueryParamInt(req, "limit", 50))
	assert.Equal(t, 50, getQueryParamInt(req, "missing", 50))
	assert.Equal(t, 50, getQueryParamInt(req, "bad", 50))

	assert.True(t, getQueryParamBool(req, "desc"))
	assert.False(t, getQueryParamBool(req, "missing"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:34567"
	assert.Equal(t, "192.0.2.10", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	// X-Forwarded-For has priority, first hop wins
	req.Header.Set("X-Forwarded-For", "203.0.113.4, 198.51.100.7")
	assert.Equal(t, "203.0.113.4", getClientIP(req))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rate limiter
// ──────────────────────────────────────────────────────────────────────────────

func TestRateLimiter_EnforcesLimitPerKey(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-a"))
	}
	assert.False(t, rl.Allow("client-a"))

	// Other keys are unaffected
	assert.True(t, rl.Allow("client-b"))
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := newRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("client"))
}
