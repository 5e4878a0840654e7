package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURCHASE STORE ITEM COMMAND
// Покупка товара в магазине наград за монеты. Монеты списываются
// атомарно вместе с созданием записи покупки.
// ══════════════════════════════════════════════════════════════════════════════

// PurchaseItemCommand contains the data to purchase a store item.
type PurchaseItemCommand struct {
	// ProfileID is the buying profile.
	ProfileID string

	// ItemID is the store item to purchase.
	ItemID string

	// Timestamp is when the purchase occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c PurchaseItemCommand) Validate() error {
	if c.ProfileID == "" {
		return errors.New("purchase_item: profile_id is required")
	}
	if c.ItemID == "" {
		return errors.New("purchase_item: item_id is required")
	}
	return nil
}

// PurchaseItemResult contains the result of a purchase.
type PurchaseItemResult struct {
	PurchaseID string
	ProfileID  string
	ItemID     string
	ItemName   string

	// CoinsSpent - списанные монеты, RemainingCoins - остаток.
	CoinsSpent     int
	RemainingCoins int

	// PurchasedAt is when the purchase was recorded.
	PurchasedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// PurchaseItemHandler handles the PurchaseItemCommand.
type PurchaseItemHandler struct {
	profiles    profile.Repository
	items       catalog.StoreItemRepository
	progression progression.Repository
	ledger      *progression.Ledger
	cache       profile.Cache
	publisher   shared.EventPublisher
}

// NewPurchaseItemHandler creates a new PurchaseItemHandler.
func NewPurchaseItemHandler(
	profiles profile.Repository,
	items catalog.StoreItemRepository,
	progressionRepo progression.Repository,
	ledger *progression.Ledger,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *PurchaseItemHandler {
	return &PurchaseItemHandler{
		profiles:    profiles,
		items:       items,
		progression: progressionRepo,
		ledger:      ledger,
		cache:       cache,
		publisher:   publisher,
	}
}

// Handle executes the purchase item command.
func (h *PurchaseItemHandler) Handle(ctx context.Context, cmd PurchaseItemCommand) (*PurchaseItemResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	item, err := h.items.GetByID(ctx, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active || !item.InStock() {
		return nil, shared.ErrItemOutOfStock
	}

	var outcome *progression.PurchaseOutcome
	err = withProfileCAS(ctx, h.profiles, cmd.ProfileID, func(ctx context.Context, p *profile.Profile) error {
		// Новый ID на каждую попытку: повтор после конфликта версий не
		// должен упереться в уже вставленную запись покупки.
		var err error
		outcome, err = h.ledger.PurchaseStoreItem(p, item, uuid.NewString(), now)
		if err != nil {
			return err
		}

		// Сначала CAS-списание: проигранная гонка не должна оставлять
		// запись покупки без оплаты.
		if err := h.profiles.Update(ctx, outcome.Profile); err != nil {
			return err
		}
		return h.progression.CreatePurchase(ctx, outcome.Purchase)
	})
	if err != nil {
		return nil, fmt.Errorf("purchase_item: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.ProfileID)
	}

	publishAll(h.publisher,
		shared.NewPurchaseMadeEvent(cmd.ProfileID, cmd.ItemID, outcome.Purchase.ID, outcome.CoinsSpent))

	return &PurchaseItemResult{
		PurchaseID:     outcome.Purchase.ID,
		ProfileID:      cmd.ProfileID,
		ItemID:         cmd.ItemID,
		ItemName:       item.Name,
		CoinsSpent:     outcome.CoinsSpent,
		RemainingCoins: int(outcome.Profile.TotalCoins),
		PurchasedAt:    now,
	}, nil
}
