package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentdeck/talentdeck/pkg/channels/gochannel"
	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/events"
)

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.JobTasksFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.JobTasksFinished{
		BaseEvent:      events.NewBaseEvent(events.JobTasksFinishedEvent),
		Scope:          "job:job-1",
		CompletedCount: 2,
		FailedCount:    1,
	}
	require.NoError(t, bus.Publish(ctx, "job-1", event))

	select {
	case got := <-received:
		finished, ok := got.(*events.JobTasksFinished)
		require.True(t, ok)
		assert.Equal(t, "job:job-1", finished.Scope)
		assert.Equal(t, 2, finished.CompletedCount)
		assert.Equal(t, 1, finished.FailedCount)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered: publish must not block or error.
	event := events.JobCreated{
		BaseEvent: events.NewBaseEvent(events.JobCreatedEvent),
		JobID:     "job-1",
	}
	assert.NoError(t, bus.Publish(ctx, "job-1", event))
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
