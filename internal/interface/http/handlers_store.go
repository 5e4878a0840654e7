package http

import (
	"net/http"
	"time"

	"github.com/luckcash/luckcash-server/internal/application/command"
	"github.com/luckcash/luckcash-server/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListStore handles GET /api/v1/store
func (s *Server) handleListStore(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListStoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Store handler not configured")
		return
	}

	q := query.ListStoreQuery{
		ProfileID: profileIDFromContext(r.Context()),
		Category:  getQueryParam(r, "category", ""),
	}

	result, err := s.deps.ListStoreHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePurchaseItem handles POST /api/v1/store/{id}/purchase
func (s *Server) handlePurchaseItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.PurchaseItemHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Store handler not configured")
		return
	}

	cmd := command.PurchaseItemCommand{
		ProfileID: profileIDFromContext(r.Context()),
		ItemID:    r.PathValue("id"),
		Timestamp: time.Now().UTC(),
	}

	result, err := s.deps.PurchaseItemHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListPurchases handles GET /api/v1/me/purchases
func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListPurchasesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Purchases handler not configured")
		return
	}

	q := query.ListPurchasesQuery{
		ProfileID: profileIDFromContext(r.Context()),
	}

	result, err := s.deps.ListPurchasesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRedeemPurchase handles POST /api/v1/purchases/{id}/redeem
func (s *Server) handleRedeemPurchase(w http.ResponseWriter, r *http.Request) {
	if s.deps.RedeemPurchaseHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Purchases handler not configured")
		return
	}

	cmd := command.RedeemPurchaseCommand{
		ProfileID:  profileIDFromContext(r.Context()),
		PurchaseID: r.PathValue("id"),
		Timestamp:  time.Now().UTC(),
	}

	result, err := s.deps.RedeemPurchaseHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
