package sse

import (
	"log/slog"
	"sync"
	"time"
)

// Well-known event names emitted by the broker itself.
const (
	// EventInit is the synthetic first event sent on subscribe to force
	// header delivery and confirm the channel is live.
	EventInit = "init"

	// EventHeartbeat is the periodic ping used to detect dead connections.
	EventHeartbeat = "heartbeat"
)

// DefaultHeartbeatInterval is used when no interval is configured.
const DefaultHeartbeatInterval = 30 * time.Second

// Broker maintains the set of live subscribers and fans out named events to
// all of them. Sends are best-effort and isolated per subscriber: a dead or
// saturated subscriber is pruned without affecting delivery to the others or
// surfacing an error to the broadcasting caller.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}

	heartbeatInterval time.Duration
	logger            *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewBroker creates a new Broker.
// A non-positive heartbeatInterval falls back to DefaultHeartbeatInterval.
// If logger is nil, the process default logger is used.
func NewBroker(heartbeatInterval time.Duration, logger *slog.Logger) *Broker {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Broker{
		subs:              make(map[*Subscriber]struct{}),
		heartbeatInterval: heartbeatInterval,
		logger:            logger.With(slog.String("component", "sse_broker")),
		stopCh:            make(chan struct{}),
	}
}

// Start launches the heartbeat loop. It must be called at most once.
func (b *Broker) Start() {
	b.wg.Add(1)
	go b.heartbeatLoop()
}

// Stop terminates the heartbeat loop and closes every subscriber.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()

	b.mu.Lock()
	for sub := range b.subs {
		sub.Close()
		delete(b.subs, sub)
	}
	b.mu.Unlock()
}

// Subscribe registers a new subscriber and returns its handle. The handle
// immediately carries the synthetic EventInit message confirming the channel
// is live. The caller owns reading from the handle and must Close it when
// the connection ends.
func (b *Broker) Subscribe() *Subscriber {
	sub := newSubscriber()

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()

	// Guaranteed to fit: the subscriber's buffer is fresh.
	sub.send(Event{Name: EventInit, Data: "Connection established"})

	b.logger.Info("sse client subscribed", "active_subscribers", count)
	return sub
}

// Unsubscribe removes the subscriber from the active set and closes it.
// Removing an already-removed subscriber is a no-op.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, present := b.subs[sub]
	delete(b.subs, sub)
	count := len(b.subs)
	b.mu.Unlock()

	sub.Close()
	if present {
		b.logger.Debug("sse client unsubscribed", "active_subscribers", count)
	}
}

// Broadcast sends the event to every currently active subscriber.
// A failed send marks that subscriber dead and removes it, without
// interrupting delivery to the rest. Each subscriber observes events in
// broadcast order; no ordering holds across subscribers.
func (b *Broker) Broadcast(name string, data any) {
	b.deliver(Event{Name: name, Data: data})
}

// SubscriberCount returns the number of currently active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// deliver fans the event out under the subscriber-set lock, pruning
// subscribers whose send fails.
func (b *Broker) deliver(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var dead []*Subscriber
	for sub := range b.subs {
		if !sub.send(ev) {
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		delete(b.subs, sub)
		sub.Close()
	}

	if len(dead) > 0 {
		b.logger.Debug("pruned dead sse subscribers",
			"count", len(dead),
			"event", ev.Name,
			"active_subscribers", len(b.subs))
	}
}

// heartbeatLoop periodically pings all subscribers so dead connections are
// detected and reaped; subscriber channels have no inactivity timeout.
func (b *Broker) heartbeatLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			if b.SubscriberCount() == 0 {
				continue
			}
			b.deliver(Event{Name: EventHeartbeat, Data: "ping"})
		}
	}
}
