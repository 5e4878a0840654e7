package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func newPurchaseItemFixture(t *testing.T, coins int, item *catalog.StoreItem) (*PurchaseItemHandler, *fakeProfileRepo, *fakeProgressionRepo, *fakePublisher) {
	t.Helper()
	profiles := newFakeProfileRepo(newTestProfile(t, coins, 0))
	progressionRepo := newFakeProgressionRepo()
	publisher := &fakePublisher{}
	handler := NewPurchaseItemHandler(
		profiles, newFakeStoreItemRepo(item), progressionRepo,
		progression.NewLedger(nil), &fakeProfileCache{}, publisher)
	return handler, profiles, progressionRepo, publisher
}

func TestPurchaseItem_DebitsAndRecords(t *testing.T) {
	handler, profiles, progressionRepo, publisher := newPurchaseItemFixture(t, 200, newTestItem(t, 150))

	result, err := handler.Handle(context.Background(), PurchaseItemCommand{
		ProfileID: testProfileID,
		ItemID:    testItemID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, 150, result.CoinsSpent)
	assert.Equal(t, 50, result.RemainingCoins)
	assert.NotEmpty(t, result.PurchaseID)
	assert.Equal(t, "Золотой аватар", result.ItemName)

	stored := profiles.mustGet(t, testProfileID)
	assert.Equal(t, shared.Coins(50), stored.TotalCoins)

	purchase, err := progressionRepo.GetPurchase(context.Background(), result.PurchaseID)
	assert.NoError(t, err)
	assert.Equal(t, testProfileID, purchase.ProfileID)
	assert.Equal(t, testItemID, purchase.ItemID)
	assert.Equal(t, 150, purchase.CoinsSpent)
	assert.False(t, purchase.Redeemed)

	assert.Equal(t, []shared.EventType{shared.EventPurchaseMade}, publisher.types())
}

func TestPurchaseItem_InsufficientCoins(t *testing.T) {
	handler, profiles, progressionRepo, publisher := newPurchaseItemFixture(t, 100, newTestItem(t, 150))

	_, err := handler.Handle(context.Background(), PurchaseItemCommand{
		ProfileID: testProfileID,
		ItemID:    testItemID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrNotEnoughCoins)

	// Баланс не тронут, покупка не записана
	assert.Equal(t, shared.Coins(100), profiles.mustGet(t, testProfileID).TotalCoins)
	count, err := progressionRepo.CountPurchases(context.Background(), testProfileID)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, publisher.types())
}

func TestPurchaseItem_OutOfStock(t *testing.T) {
	item := newTestItem(t, 50)
	item.Stock = 0
	handler, _, _, _ := newPurchaseItemFixture(t, 200, item)

	_, err := handler.Handle(context.Background(), PurchaseItemCommand{
		ProfileID: testProfileID,
		ItemID:    testItemID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrItemOutOfStock)
}

func TestPurchaseItem_InactiveItem(t *testing.T) {
	item := newTestItem(t, 50)
	item.Active = false
	handler, _, _, _ := newPurchaseItemFixture(t, 200, item)

	_, err := handler.Handle(context.Background(), PurchaseItemCommand{
		ProfileID: testProfileID,
		ItemID:    testItemID,
		Timestamp: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrItemOutOfStock)
}

func TestPurchaseItem_ConflictRetryUsesFreshPurchaseID(t *testing.T) {
	handler, profiles, progressionRepo, _ := newPurchaseItemFixture(t, 200, newTestItem(t, 150))
	profiles.failUpdates = 1

	result, err := handler.Handle(context.Background(), PurchaseItemCommand{
		ProfileID: testProfileID,
		ItemID:    testItemID,
		Timestamp: testNow,
	})
	assert.NoError(t, err)

	// Списание прошло ровно один раз, запись покупки ровно одна
	assert.Equal(t, shared.Coins(50), profiles.mustGet(t, testProfileID).TotalCoins)
	count, err := progressionRepo.CountPurchases(context.Background(), testProfileID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	purchase, err := progressionRepo.GetPurchase(context.Background(), result.PurchaseID)
	assert.NoError(t, err)
	assert.Equal(t, 150, purchase.CoinsSpent)
}
