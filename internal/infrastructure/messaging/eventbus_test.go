package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

func newSyncBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = testDispatcherLogger()
	cfg.AsyncMode = false
	bus := NewInMemoryEventBus(cfg)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestInMemoryEventBus_TypedAndGlobalSubscribers(t *testing.T) {
	bus := newSyncBus(t)

	typed := 0
	all := 0
	assert.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(event shared.Event) error {
		typed++
		return nil
	}))
	assert.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		all++
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("p-1", "l-1", 50, 25)))
	assert.NoError(t, bus.Publish(shared.NewXPGainedEvent("p-1", 25, 25, "lesson")))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newSyncBus(t)
	assert.NoError(t, bus.Close())

	err := bus.Publish(shared.NewLessonCompletedEvent("p-1", "l-1", 0, 0))
	assert.ErrorIs(t, err, ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

// stubRedisClient captures published payloads and lets tests inject
// messages as if they came from another instance.
type stubRedisClient struct {
	mu        sync.Mutex
	published []string
	incoming  chan RedisMessage
}

func newStubRedisClient() *stubRedisClient {
	return &stubRedisClient{incoming: make(chan RedisMessage, 8)}
}

func (c *stubRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, message.(string))
	return nil
}

func (c *stubRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	return c.incoming, nil
}

func (c *stubRedisClient) Close() error { return nil }

func (c *stubRedisClient) lastEnvelope(t *testing.T) eventEnvelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.published) == 0 {
		t.Fatal("nothing was published to redis")
	}

	var envelope eventEnvelope
	assert.NoError(t, json.Unmarshal([]byte(c.published[len(c.published)-1]), &envelope))
	return envelope
}

func newRedisBus(t *testing.T, client *stubRedisClient) *RedisEventBus {
	t.Helper()
	localCfg := DefaultInMemoryEventBusConfig()
	localCfg.Logger = testDispatcherLogger()
	localCfg.AsyncMode = false

	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: localCfg,
		Logger:         testDispatcherLogger(),
	})
	if err != nil {
		t.Fatalf("failed to build redis event bus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBus_PublishFansOutToRedisAndLocal(t *testing.T) {
	client := newStubRedisClient()
	bus := newRedisBus(t, client)

	local := 0
	assert.NoError(t, bus.Subscribe(shared.EventStreakBroken, func(event shared.Event) error {
		local++
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewStreakBrokenEvent("p-1", 7, 1)))

	assert.Equal(t, 1, local)
	envelope := client.lastEnvelope(t)
	assert.Equal(t, "instance-a", envelope.InstanceID)
	assert.Equal(t, shared.EventStreakBroken, envelope.EventType)
	assert.Equal(t, "p-1", envelope.AggregateID)
}

func TestRedisEventBus_DeliversRemoteEvents(t *testing.T) {
	client := newStubRedisClient()
	bus := newRedisBus(t, client)

	received := make(chan shared.Event, 1)
	assert.NoError(t, bus.Subscribe(shared.EventStreakBroken, func(event shared.Event) error {
		received <- event
		return nil
	}))

	payload, err := json.Marshal(eventEnvelope{
		InstanceID:  "instance-b",
		EventType:   shared.EventStreakBroken,
		AggregateID: "p-2",
		OccurredAt:  time.Now().UTC(),
		Payload:     map[string]interface{}{"lost_streak": float64(5)},
	})
	assert.NoError(t, err)
	client.incoming <- RedisMessage{Channel: "luckcash:events", Payload: string(payload)}

	select {
	case event := <-received:
		assert.Equal(t, shared.EventStreakBroken, event.EventType())
		assert.Equal(t, "p-2", event.AggregateID())
	case <-time.After(time.Second):
		t.Fatal("remote event was not delivered")
	}
}

func TestRedisEventBus_SkipsOwnMessages(t *testing.T) {
	client := newStubRedisClient()
	bus := newRedisBus(t, client)

	received := make(chan shared.Event, 1)
	assert.NoError(t, bus.Subscribe(shared.EventStreakBroken, func(event shared.Event) error {
		received <- event
		return nil
	}))

	payload, err := json.Marshal(eventEnvelope{
		InstanceID: "instance-a",
		EventType:  shared.EventStreakBroken,
	})
	assert.NoError(t, err)
	client.incoming <- RedisMessage{Channel: "luckcash:events", Payload: string(payload)}

	select {
	case <-received:
		t.Fatal("own message must not be re-delivered")
	case <-time.After(50 * time.Millisecond):
	}
}
