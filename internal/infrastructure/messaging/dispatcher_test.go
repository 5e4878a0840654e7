package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func testDispatcherLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, bus shared.EventBus) *Dispatcher {
	t.Helper()
	cfg := DefaultDispatcherConfig(bus)
	cfg.Logger = testDispatcherLogger()
	cfg.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	d := NewDispatcher(cfg)
	t.Cleanup(func() { _ = d.Stop() })
	return d
}

func TestDispatcher_DeliversToRegisteredHandler(t *testing.T) {
	d := newTestDispatcher(t, nil)

	var mu sync.Mutex
	var received []shared.EventType
	err := d.RegisterSync(shared.EventLessonCompleted, "recorder", func(event shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.EventType())
		return nil
	})
	assert.NoError(t, err)

	event := shared.NewLessonCompletedEvent("p-1", "l-1", 50, 25)
	assert.NoError(t, d.Dispatch(event))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []shared.EventType{shared.EventLessonCompleted}, received)
}

func TestDispatcher_UnregisteredEventIsIgnored(t *testing.T) {
	d := newTestDispatcher(t, nil)
	assert.NoError(t, d.Dispatch(shared.NewLessonCompletedEvent("p-1", "l-1", 0, 0)))
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	d := newTestDispatcher(t, nil)

	attempts := 0
	err := d.RegisterSync(shared.EventXPGained, "flaky", func(event shared.Event) error {
		attempts++
		if attempts < 2 {
			return errors.New("temporarily unavailable")
		}
		return nil
	})
	assert.NoError(t, err)

	assert.NoError(t, d.Dispatch(shared.NewXPGainedEvent("p-1", 10, 10, "lesson")))
	assert.Equal(t, 2, attempts)
}

func TestDispatcher_ExhaustedRetriesGoToDeadLetterQueue(t *testing.T) {
	d := newTestDispatcher(t, nil)

	err := d.RegisterHandler(shared.EventMissionClaimed, HandlerRegistration{
		Name:       "broken",
		Handler:    func(event shared.Event) error { return errors.New("down") },
		MaxRetries: 1,
		Timeout:    time.Second,
	})
	assert.NoError(t, err)

	dispatchErr := d.Dispatch(shared.NewMissionClaimedEvent("p-1", "m-1", "2026-03-10", 20, 10))
	assert.Error(t, dispatchErr)

	entries := d.DeadLetterQueue().Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].HandlerName)
	assert.Equal(t, 2, entries[0].Attempts)
}

func TestDispatcher_RecoveryMiddlewareTurnsPanicIntoError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	d.Use(RecoveryMiddleware(testDispatcherLogger()))

	err := d.RegisterHandler(shared.EventStreakExtended, HandlerRegistration{
		Name:       "panicky",
		Handler:    func(event shared.Event) error { panic("boom") },
		MaxRetries: 1,
		Timeout:    time.Second,
	})
	assert.NoError(t, err)

	dispatchErr := d.Dispatch(shared.NewStreakExtendedEvent("p-1", 3, 5))
	assert.Error(t, dispatchErr)
	assert.Contains(t, dispatchErr.Error(), "panic")
}

func TestDispatcher_StartReceivesBusEvents(t *testing.T) {
	busCfg := DefaultInMemoryEventBusConfig()
	busCfg.Logger = testDispatcherLogger()
	busCfg.AsyncMode = false
	bus := NewInMemoryEventBus(busCfg)
	defer func() { _ = bus.Close() }()

	d := newTestDispatcher(t, bus)

	var mu sync.Mutex
	got := 0
	assert.NoError(t, d.RegisterSync(shared.EventLessonCompleted, "counter", func(event shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got++
		return nil
	}))
	assert.NoError(t, d.Start())

	assert.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("p-1", "l-1", 50, 25)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, got)
}

func TestDispatcher_MetricsMiddlewareCountsExecutions(t *testing.T) {
	d := newTestDispatcher(t, nil)
	d.Use(MetricsMiddleware(d.Metrics()))

	assert.NoError(t, d.RegisterSync(shared.EventXPGained, "noop", func(event shared.Event) error {
		return nil
	}))
	assert.NoError(t, d.Dispatch(shared.NewXPGainedEvent("p-1", 5, 5, "mission")))

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalDispatched)
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(0), snap.TotalFailures)
}
