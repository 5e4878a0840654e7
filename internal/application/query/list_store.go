package query

import (
	"context"
	"errors"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST STORE QUERY
// Витрина магазина наград. Каждый товар помечается признаком
// Affordable по текущему балансу пользователя.
// ══════════════════════════════════════════════════════════════════════════════

// ListStoreQuery содержит параметры запроса витрины магазина.
type ListStoreQuery struct {
	// ProfileID - пользователь, чей баланс учитывается.
	ProfileID string

	// Category - фильтр по категории (пустая строка = все).
	Category string
}

// Validate проверяет корректность параметров запроса.
func (q *ListStoreQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// StoreItemDTO - DTO товара магазина наград.
type StoreItemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CostCoins   int    `json:"cost_coins"`
	ImageURL    string `json:"image_url,omitempty"`

	// InStock - товар в наличии. Stock не отдаётся наружу:
	// точный остаток - внутренняя информация.
	InStock bool `json:"in_stock"`

	// Affordable - хватает ли монет на покупку.
	Affordable bool `json:"affordable"`
}

// ListStoreResult содержит результат запроса витрины.
type ListStoreResult struct {
	Items []StoreItemDTO `json:"items"`

	// Balance - текущий баланс монет пользователя.
	Balance int `json:"balance"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListStoreHandler обрабатывает запросы витрины магазина.
type ListStoreHandler struct {
	items    catalog.StoreItemRepository
	profiles profile.Repository
}

// NewListStoreHandler создаёт новый обработчик витрины магазина.
func NewListStoreHandler(items catalog.StoreItemRepository, profiles profile.Repository) *ListStoreHandler {
	return &ListStoreHandler{items: items, profiles: profiles}
}

// Handle выполняет запрос витрины магазина.
func (h *ListStoreHandler) Handle(ctx context.Context, query ListStoreQuery) (*ListStoreResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListStore", shared.ErrValidation, err.Error(), err)
	}

	p, err := h.profiles.GetByID(ctx, query.ProfileID)
	if err != nil {
		return nil, err
	}

	var items []*catalog.StoreItem
	if query.Category != "" {
		items, err = h.items.ListByCategory(ctx, query.Category)
	} else {
		items, err = h.items.ListActive(ctx)
	}
	if err != nil {
		return nil, shared.WrapError("query", "ListStore", shared.ErrServiceUnavailable, "failed to load store items", err)
	}

	dtos := make([]StoreItemDTO, len(items))
	for i, item := range items {
		dtos[i] = StoreItemDTO{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			CostCoins:   item.CostCoins,
			ImageURL:    item.ImageURL,
			InStock:     item.InStock(),
			Affordable:  p.TotalCoins.CanAfford(item.CostCoins),
		}
	}

	return &ListStoreResult{
		Items:       dtos,
		Balance:     int(p.TotalCoins),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST PURCHASES QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListPurchasesQuery содержит параметры запроса истории покупок.
type ListPurchasesQuery struct {
	ProfileID string
}

// Validate проверяет корректность параметров запроса.
func (q *ListPurchasesQuery) Validate() error {
	if q.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// PurchaseDTO - DTO покупки.
type PurchaseDTO struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	ItemName    string     `json:"item_name,omitempty"`
	CoinsSpent  int        `json:"coins_spent"`
	Redeemed    bool       `json:"redeemed"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty"`
	PurchasedAt time.Time  `json:"purchased_at"`
}

// ListPurchasesResult содержит историю покупок пользователя.
type ListPurchasesResult struct {
	Purchases []PurchaseDTO `json:"purchases"`

	// TotalSpent - всего потрачено монет.
	TotalSpent int `json:"total_spent"`
}

// ListPurchasesHandler обрабатывает запросы истории покупок.
type ListPurchasesHandler struct {
	progression progression.Repository
	items       catalog.StoreItemRepository
}

// NewListPurchasesHandler создаёт новый обработчик истории покупок.
func NewListPurchasesHandler(
	progressionRepo progression.Repository,
	items catalog.StoreItemRepository,
) *ListPurchasesHandler {
	return &ListPurchasesHandler{progression: progressionRepo, items: items}
}

// Handle выполняет запрос истории покупок.
func (h *ListPurchasesHandler) Handle(ctx context.Context, query ListPurchasesQuery) (*ListPurchasesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListPurchases", shared.ErrValidation, err.Error(), err)
	}

	purchases, err := h.progression.ListPurchases(ctx, query.ProfileID)
	if err != nil {
		return nil, shared.WrapError("query", "ListPurchases", shared.ErrServiceUnavailable, "failed to load purchases", err)
	}

	dtos := make([]PurchaseDTO, len(purchases))
	totalSpent := 0
	for i, purchase := range purchases {
		dto := PurchaseDTO{
			ID:          purchase.ID,
			ItemID:      purchase.ItemID,
			CoinsSpent:  purchase.CoinsSpent,
			Redeemed:    purchase.Redeemed,
			PurchasedAt: purchase.PurchasedAt,
		}
		if purchase.Redeemed && !purchase.RedeemedAt.IsZero() {
			redeemedAt := purchase.RedeemedAt
			dto.RedeemedAt = &redeemedAt
		}

		// Название товара информационное: удалённый товар не ломает историю.
		if item, err := h.items.GetByID(ctx, purchase.ItemID); err == nil {
			dto.ItemName = item.Name
		}

		totalSpent += purchase.CoinsSpent
		dtos[i] = dto
	}

	return &ListPurchasesResult{
		Purchases:  dtos,
		TotalSpent: totalSpent,
	}, nil
}
