package http

import (
	"net/http"
	"time"

	"github.com/luckcash/luckcash-server/internal/application/command"
	"github.com/luckcash/luckcash-server/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListLessons handles GET /api/v1/lessons
func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListLessonsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lessons handler not configured")
		return
	}

	q := query.ListLessonsQuery{
		ProfileID: profileIDFromContext(r.Context()),
		Category:  getQueryParam(r, "category", ""),
	}

	result, err := s.deps.ListLessonsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLesson handles GET /api/v1/lessons/{id}
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lessons handler not configured")
		return
	}

	q := query.GetLessonQuery{
		ProfileID: profileIDFromContext(r.Context()),
		LessonID:  r.PathValue("id"),
	}

	result, err := s.deps.GetLessonHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// advanceLessonRequest is the payload for POST /api/v1/lessons/{id}/advance.
type advanceLessonRequest struct {
	Increment int `json:"increment"`
}

// handleAdvanceLesson handles POST /api/v1/lessons/{id}/advance
func (s *Server) handleAdvanceLesson(w http.ResponseWriter, r *http.Request) {
	if s.deps.AdvanceLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lessons handler not configured")
		return
	}

	var req advanceLessonRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.AdvanceLessonCommand{
		ProfileID: profileIDFromContext(r.Context()),
		LessonID:  r.PathValue("id"),
		Increment: req.Increment,
		Timestamp: time.Now().UTC(),
	}

	result, err := s.deps.AdvanceLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// completeLessonRequest is the payload for POST /api/v1/lessons/{id}/complete.
type completeLessonRequest struct {
	Score int `json:"score"`
}

// handleCompleteLesson handles POST /api/v1/lessons/{id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lessons handler not configured")
		return
	}

	var req completeLessonRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.CompleteLessonCommand{
		ProfileID: profileIDFromContext(r.Context()),
		LessonID:  r.PathValue("id"),
		Score:     req.Score,
		Timestamp: time.Now().UTC(),
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDailyMissions handles GET /api/v1/missions/today
func (s *Server) handleGetDailyMissions(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDailyMissionsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Missions handler not configured")
		return
	}

	q := query.GetDailyMissionsQuery{
		ProfileID: profileIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	result, err := s.deps.GetDailyMissionsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleClaimMission handles POST /api/v1/missions/{id}/claim
func (s *Server) handleClaimMission(w http.ResponseWriter, r *http.Request) {
	if s.deps.ClaimMissionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Missions handler not configured")
		return
	}

	cmd := command.ClaimMissionCommand{
		ProfileID: profileIDFromContext(r.Context()),
		MissionID: r.PathValue("id"),
		Timestamp: time.Now().UTC(),
	}

	result, err := s.deps.ClaimMissionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
