package http

import (
	"net/http"

	"github.com/luckcash/luckcash-server/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard/{board}
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Board:    r.PathValue("board"),
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", 10),
		ViewerID: profileIDFromContext(r.Context()),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasMore:    result.HasMore,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListProfiles handles GET /api/v1/admin/profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListProfilesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Admin handler not configured")
		return
	}

	q := query.ListProfilesQuery{
		Offset:   getQueryParamInt(r, "offset", 0),
		Limit:    getQueryParamInt(r, "limit", 50),
		SortBy:   getQueryParam(r, "sort_by", "created_at"),
		SortDesc: getQueryParamBool(r, "sort_desc"),
	}

	result, err := s.deps.ListProfilesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}
