package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDEEM PURCHASE COMMAND
// Погашение купленной награды (выдача). Одноразовая операция:
// повторное погашение возвращает ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// RedeemPurchaseCommand contains the data to redeem a purchase.
type RedeemPurchaseCommand struct {
	// ProfileID is the acting profile; the purchase must belong to it.
	ProfileID string

	// PurchaseID is the purchase being redeemed.
	PurchaseID string

	// Timestamp is when the redemption occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c RedeemPurchaseCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("redeem_purchase: profile_id is required")
	}
	if c.PurchaseID == "" {
		return errors.New("redeem_purchase: purchase_id is required")
	}
	return nil
}

// RedeemPurchaseResult contains the result of redeeming a purchase.
type RedeemPurchaseResult struct {
	PurchaseID string
	ProfileID  string
	ItemID     string
	RedeemedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RedeemPurchaseHandler handles the RedeemPurchaseCommand.
type RedeemPurchaseHandler struct {
	progression progression.Repository
}

// NewRedeemPurchaseHandler creates a new RedeemPurchaseHandler.
func NewRedeemPurchaseHandler(progressionRepo progression.Repository) *RedeemPurchaseHandler {
	return &RedeemPurchaseHandler{progression: progressionRepo}
}

// Handle executes the redeem purchase command.
func (h *RedeemPurchaseHandler) Handle(ctx context.Context, cmd RedeemPurchaseCommand) (*RedeemPurchaseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	purchase, err := h.progression.GetPurchase(ctx, cmd.PurchaseID)
	if err != nil {
		return nil, err
	}

	// Чужая покупка неотличима от несуществующей.
	if purchase.ProfileID != cmd.ProfileID {
		return nil, shared.ErrPurchaseNotFound
	}

	if err := purchase.Redeem(now); err != nil {
		return nil, err
	}

	if err := h.progression.UpdatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("redeem_purchase: %w", err)
	}

	return &RedeemPurchaseResult{
		PurchaseID: purchase.ID,
		ProfileID:  purchase.ProfileID,
		ItemID:     purchase.ItemID,
		RedeemedAt: purchase.RedeemedAt,
	}, nil
}
