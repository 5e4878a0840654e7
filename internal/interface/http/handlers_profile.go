package http

import (
	"net/http"

	"github.com/luckcash/luckcash-server/internal/application/command"
	"github.com/luckcash/luckcash-server/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetMe handles GET /api/v1/me
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProfileOverviewHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	q := query.GetProfileOverviewQuery{
		ProfileID: profileIDFromContext(r.Context()),
	}

	result, err := s.deps.GetProfileOverviewHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// updateProfileRequest is the payload for PATCH /api/v1/me.
// Empty fields keep their current value.
type updateProfileRequest struct {
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	FavoriteColor  string `json:"favorite_color"`
	SelectedAvatar string `json:"selected_avatar"`
}

// handleUpdateMe handles PATCH /api/v1/me
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpdateProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.UpdateProfileCommand{
		ProfileID:      profileIDFromContext(r.Context()),
		DisplayName:    req.DisplayName,
		Bio:            req.Bio,
		AvatarURL:      req.AvatarURL,
		FavoriteColor:  req.FavoriteColor,
		SelectedAvatar: req.SelectedAvatar,
	}

	result, err := s.deps.UpdateProfileHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileSummary(result.Profile))
}

// selectPlanRequest is the payload for POST /api/v1/me/plan.
type selectPlanRequest struct {
	Plan string `json:"plan"`
}

// handleSelectPlan handles POST /api/v1/me/plan
func (s *Server) handleSelectPlan(w http.ResponseWriter, r *http.Request) {
	if s.deps.SelectPlanHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Plan handler not configured")
		return
	}

	var req selectPlanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.SelectPlanCommand{
		ProfileID: profileIDFromContext(r.Context()),
		Plan:      req.Plan,
	}

	result, err := s.deps.SelectPlanHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"profile_id": result.ProfileID,
		"old_plan":   result.OldPlan,
		"new_plan":   result.NewPlan,
	})
}

// handleGetStatsHistory handles GET /api/v1/me/stats
func (s *Server) handleGetStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStatsHistoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	q := query.GetStatsHistoryQuery{
		ProfileID: profileIDFromContext(r.Context()),
		Days:      getQueryParamInt(r, "days", 30),
	}

	result, err := s.deps.GetStatsHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListAchievements handles GET /api/v1/achievements
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListAchievementsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Achievements handler not configured")
		return
	}

	q := query.ListAchievementsQuery{
		ProfileID:    profileIDFromContext(r.Context()),
		OnlyUnlocked: getQueryParamBool(r, "unlocked"),
	}

	result, err := s.deps.ListAchievementsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
