package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"leadcall_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishDoesNotBlockOnSlowHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	release := make(chan struct{})
	var calls atomic.Int32

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		<-release
		calls.Add(1)
		return nil
	}))

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on handler")
	}

	close(release)
	bus.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestPublishSwallowsHandlerFailures(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls atomic.Int32

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return errors.New("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		panic("worse")
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestPublishDetachesCancellation(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	errCh := make(chan error, 1)
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		errCh <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	require.NoError(t, <-errCh)
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { return errors.New("first") }))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()
	assert.NoError(t, bus.PublishSync(context.Background(), pingEvent{}))
}
