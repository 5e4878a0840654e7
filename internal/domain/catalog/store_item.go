package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE ITEM (Товар магазина наград)
// ══════════════════════════════════════════════════════════════════════════════

// StockUnlimited - признак неограниченного запаса товара.
const StockUnlimited = -1

// StoreItem - товар в магазине наград, покупаемый за монеты.
type StoreItem struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// Name - название товара.
	Name string

	// Description - описание товара.
	Description string

	// Category - категория товара (avatar, theme, badge, real_reward...).
	Category string

	// CostCoins - стоимость в монетах.
	CostCoins int

	// Stock - остаток на складе. StockUnlimited означает без ограничений.
	// Запас информационный: покупка его не списывает, если это не
	// включено флагом тарифа.
	Stock int

	// ImageURL - ссылка на изображение товара.
	ImageURL string

	// Active - доступен ли товар для покупки.
	Active bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Ошибки валидации товара.
var (
	ErrInvalidItemName = errors.New("invalid store item name: must be 1-200 chars")
	ErrInvalidItemCost = errors.New("invalid store item cost: must be non-negative")
)

// NewStoreItemParams содержит параметры для создания товара.
type NewStoreItemParams struct {
	ID          string
	Name        string
	Description string
	Category    string
	CostCoins   int
	Stock       int
	ImageURL    string
}

// NewStoreItem создаёт товар с валидацией всех полей.
func NewStoreItem(params NewStoreItemParams) (*StoreItem, error) {
	if params.ID == "" {
		return nil, errors.New("store item id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 200 {
		return nil, ErrInvalidItemName
	}

	if params.CostCoins < 0 {
		return nil, ErrInvalidItemCost
	}

	stock := params.Stock
	if stock < 0 {
		stock = StockUnlimited
	}

	now := time.Now().UTC()

	return &StoreItem{
		ID:          params.ID,
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		Category:    strings.ToLower(strings.TrimSpace(params.Category)),
		CostCoins:   params.CostCoins,
		Stock:       stock,
		ImageURL:    params.ImageURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// InStock проверяет, есть ли товар в наличии.
func (i *StoreItem) InStock() bool {
	return i.Stock == StockUnlimited || i.Stock > 0
}

// DecrementStock списывает единицу запаса (если запас ограничен).
func (i *StoreItem) DecrementStock() error {
	if i.Stock == StockUnlimited {
		return nil
	}
	if i.Stock <= 0 {
		return errors.New("store item out of stock")
	}
	i.Stock--
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate снимает товар с продажи.
func (i *StoreItem) Deactivate() {
	i.Active = false
	i.UpdatedAt = time.Now().UTC()
}
