package http

import (
	"context"
	"net/http"
	"time"

	"github.com/luckcash/luckcash-server/internal/application/saga"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/infrastructure/auth"
	"github.com/luckcash/luckcash-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// signUpRequest is the payload for POST /api/v1/auth/signup.
type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// signInRequest is the payload for POST /api/v1/auth/signin.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the payload for POST /api/v1/auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// authResponse carries the signed-in profile and its token pair.
type authResponse struct {
	Profile profileSummary  `json:"profile"`
	Tokens  *auth.TokenPair `json:"tokens"`
}

// profileSummary is the compact profile representation used by auth
// responses. The full overview lives behind GET /api/v1/me.
type profileSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
	Level       int    `json:"level"`
	TotalCoins  int    `json:"total_coins"`
}

func toProfileSummary(p *profile.Profile) profileSummary {
	return profileSummary{
		ID:          p.ID,
		Email:       p.Email.String(),
		DisplayName: p.DisplayName,
		Plan:        p.Plan.String(),
		Level:       p.Level.Int(),
		TotalCoins:  p.TotalCoins.Int(),
	}
}

// handleSignUp handles POST /api/v1/auth/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Auth service not configured")
		return
	}

	var req signUpRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	p, tokens, err := s.deps.Auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// Cache warm-up and leaderboard seeding must not delay the response;
	// every onboarding step is re-runnable.
	if s.deps.Onboarding != nil {
		go s.runOnboarding(p.ID)
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Profile: toProfileSummary(p),
		Tokens:  tokens,
	})
}

// handleSignIn handles POST /api/v1/auth/signin
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Auth service not configured")
		return
	}

	var req signInRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	p, tokens, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Profile: toProfileSummary(p),
		Tokens:  tokens,
	})
}

// handleRefresh handles POST /api/v1/auth/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Auth service not configured")
		return
	}

	var req refreshRequest
	if err := decodeJSONBody(r, &req); err != nil || req.RefreshToken == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	tokens, err := s.deps.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*auth.TokenPair{"tokens": tokens})
}

// handleSignOut handles POST /api/v1/auth/signout
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Auth service not configured")
		return
	}

	profileID := profileIDFromContext(r.Context())
	if err := s.deps.Auth.SignOut(r.Context(), profileID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// runOnboarding executes the post-registration saga off the request path.
func (s *Server) runOnboarding(profileID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.deps.Onboarding.Execute(ctx, saga.OnboardingInput{ProfileID: profileID}); err != nil {
		s.logger.Warn("onboarding saga failed",
			logger.ProfileID(profileID),
			logger.Err(err),
		)
	}
}
