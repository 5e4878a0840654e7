package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

const testPurchaseID = "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f8a"

func seedPurchase(t *testing.T, repo *fakeProgressionRepo, profileID string) {
	t.Helper()
	assert.NoError(t, repo.CreatePurchase(context.Background(), &progression.Purchase{
		ID:          testPurchaseID,
		ProfileID:   profileID,
		ItemID:      testItemID,
		CoinsSpent:  150,
		PurchasedAt: testNow,
	}))
}

func TestRedeemPurchase_RedeemsOnce(t *testing.T) {
	progressionRepo := newFakeProgressionRepo()
	seedPurchase(t, progressionRepo, testProfileID)
	handler := NewRedeemPurchaseHandler(progressionRepo)

	result, err := handler.Handle(context.Background(), RedeemPurchaseCommand{
		ProfileID:  testProfileID,
		PurchaseID: testPurchaseID,
		Timestamp:  testNow,
	})
	assert.NoError(t, err)

	assert.Equal(t, testPurchaseID, result.PurchaseID)
	assert.Equal(t, testItemID, result.ItemID)
	assert.Equal(t, testNow, result.RedeemedAt)

	stored, err := progressionRepo.GetPurchase(context.Background(), testPurchaseID)
	assert.NoError(t, err)
	assert.True(t, stored.Redeemed)
}

func TestRedeemPurchase_SecondRedeemFails(t *testing.T) {
	progressionRepo := newFakeProgressionRepo()
	seedPurchase(t, progressionRepo, testProfileID)
	handler := NewRedeemPurchaseHandler(progressionRepo)

	_, err := handler.Handle(context.Background(), RedeemPurchaseCommand{
		ProfileID:  testProfileID,
		PurchaseID: testPurchaseID,
		Timestamp:  testNow,
	})
	assert.NoError(t, err)

	_, err = handler.Handle(context.Background(), RedeemPurchaseCommand{
		ProfileID:  testProfileID,
		PurchaseID: testPurchaseID,
		Timestamp:  testNow,
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyRedeemed)
}

func TestRedeemPurchase_ForeignPurchaseLooksMissing(t *testing.T) {
	progressionRepo := newFakeProgressionRepo()
	seedPurchase(t, progressionRepo, "someone-else")
	handler := NewRedeemPurchaseHandler(progressionRepo)

	_, err := handler.Handle(context.Background(), RedeemPurchaseCommand{
		ProfileID:  testProfileID,
		PurchaseID: testPurchaseID,
		Timestamp:  testNow,
	})
	assert.ErrorIs(t, err, shared.ErrPurchaseNotFound)
}

func TestRedeemPurchase_UnknownPurchase(t *testing.T) {
	handler := NewRedeemPurchaseHandler(newFakeProgressionRepo())

	_, err := handler.Handle(context.Background(), RedeemPurchaseCommand{
		ProfileID:  testProfileID,
		PurchaseID: "missing",
		Timestamp:  testNow,
	})
	assert.ErrorIs(t, err, shared.ErrPurchaseNotFound)
}
