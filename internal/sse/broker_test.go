package sse_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/laneboard/internal/sse"
)

func newTestBroker(t *testing.T, heartbeat time.Duration) *sse.Broker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := sse.NewBroker(heartbeat, logger)
	t.Cleanup(b.Stop)
	return b
}

// receiveEvent reads one event from the subscriber, failing the test if none
// arrives promptly.
func receiveEvent(t *testing.T, sub *sse.Subscriber) sse.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscriber channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return sse.Event{}
	}
}

func TestBroker_SubscribeDeliversInitEvent(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)
	sub := b.Subscribe()

	ev := receiveEvent(t, sub)
	assert.Equal(t, sse.EventInit, ev.Name)
	assert.Equal(t, "Connection established", ev.Data)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestBroker_BroadcastWithZeroSubscribersIsNoOp(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)

	assert.NotPanics(t, func() {
		b.Broadcast("task-updated", map[string]any{"id": "t1"})
	})
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_BroadcastReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)

	const n = 5
	subs := make([]*sse.Subscriber, 0, n)
	for i := 0; i < n; i++ {
		sub := b.Subscribe()
		ev := receiveEvent(t, sub)
		require.Equal(t, sse.EventInit, ev.Name)
		subs = append(subs, sub)
	}

	b.Broadcast("lane-updated", "lane-1")

	for _, sub := range subs {
		ev := receiveEvent(t, sub)
		assert.Equal(t, "lane-updated", ev.Name)
		assert.Equal(t, "lane-1", ev.Data)
	}
}

func TestBroker_SubscriberReceivesEventsInBroadcastOrder(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)
	sub := b.Subscribe()
	receiveEvent(t, sub) // init

	names := []string{"task-updated", "task-deleted", "lane-updated"}
	for i, name := range names {
		b.Broadcast(name, i)
	}

	for i, name := range names {
		ev := receiveEvent(t, sub)
		assert.Equal(t, name, ev.Name)
		assert.Equal(t, i, ev.Data)
	}
}

func TestBroker_TaskDeletedScenario(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)
	sub := b.Subscribe()
	receiveEvent(t, sub) // init

	b.Broadcast("task-deleted", 42)

	ev := receiveEvent(t, sub)
	assert.Equal(t, "task-deleted", ev.Name)
	assert.Equal(t, 42, ev.Data)

	// No further events should be queued.
	select {
	case extra := <-sub.Events():
		t.Fatalf("unexpected extra event %q", extra.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_DeadSubscriberIsPruned(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)

	dead := b.Subscribe()
	live := b.Subscribe()
	receiveEvent(t, live) // init

	dead.Close()
	require.Equal(t, 2, b.SubscriberCount())

	b.Broadcast("task-updated", "t1")
	assert.Equal(t, 1, b.SubscriberCount(), "dead subscriber should be removed on failed send")

	// The live subscriber still receives the event.
	ev := receiveEvent(t, live)
	assert.Equal(t, "task-updated", ev.Name)

	// Subsequent broadcasts reach the survivor only.
	b.Broadcast("task-updated", "t2")
	ev = receiveEvent(t, live)
	assert.Equal(t, "t2", ev.Data)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestBroker_SaturatedSubscriberIsPruned(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)
	sub := b.Subscribe()

	// Never drain: init plus broadcasts fill the buffer, and the first
	// overflowing send drops the subscriber.
	for i := 0; i < 32; i++ {
		b.Broadcast("task-updated", i)
	}

	assert.Equal(t, 0, b.SubscriberCount())

	// Pruning closes the subscriber's done channel.
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber not closed after pruning")
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, time.Hour)
	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	// Idempotent.
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber not closed after unsubscribe")
	}
}

func TestBroker_HeartbeatReachesSubscribers(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t, 20*time.Millisecond)
	b.Start()

	sub := b.Subscribe()
	receiveEvent(t, sub) // init

	ev := receiveEvent(t, sub)
	assert.Equal(t, sse.EventHeartbeat, ev.Name)
	assert.Equal(t, "ping", ev.Data)
}

func TestBroker_StopClosesSubscribers(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := sse.NewBroker(time.Hour, logger)
	b.Start()

	sub := b.Subscribe()
	receiveEvent(t, sub) // init

	b.Stop()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber not closed after broker stop")
	}
	assert.Equal(t, 0, b.SubscriberCount())
}
