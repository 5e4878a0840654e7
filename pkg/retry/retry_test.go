package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDo_DefaultOnlyRetriesRetryable(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain failure")
	}, WithMaxAttempts(3), WithInitialDelay(1))
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_CustomRetryIf(t *testing.T) {
	sentinel := errors.New("version conflict")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return sentinel
		}
		return nil
	},
		WithMaxAttempts(3),
		WithInitialDelay(1),
		WithRetryIf(func(err error) bool { return errors.Is(err, sentinel) }),
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDatabaseRetrier_RetriesUnwrappedErrors(t *testing.T) {
	// Driver errors arrive without a Retryable wrapper and must still
	// be retried until the connection comes up.
	attempts := 0
	err := DatabaseRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDatabaseRetrier_StopsOnPermanent(t *testing.T) {
	attempts := 0
	err := DatabaseRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(errors.New("invalid credentials"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error {
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(5), WithInitialDelay(1))
	assert.Error(t, err)
}
