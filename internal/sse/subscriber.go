package sse

import "sync"

// Event is a single named message fanned out to subscribers.
// Data is an opaque payload; the HTTP edge serializes it to JSON when it is
// not already a string.
type Event struct {
	Name string
	Data any
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber whose
// buffer is full when an event arrives is considered dead and pruned.
const subscriberBuffer = 16

// Subscriber is one live client connection's view of the broker. It is
// created by Broker.Subscribe and owned by the broker's subscriber set; the
// holder reads from Events and calls Close when the connection ends.
type Subscriber struct {
	events    chan Event
	closeOnce sync.Once
	done      chan struct{}
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
}

// Events returns the channel on which the subscriber receives events, in the
// order they were broadcast.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed when the subscriber has been removed from
// the broker, either by Close or by the broker pruning it.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Close marks the subscriber finished. Safe to call multiple times and
// concurrently with broadcasts.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// send attempts a non-blocking delivery. It reports false when the
// subscriber is closed or its buffer is full, in which case the broker
// treats it as dead.
func (s *Subscriber) send(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
