package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus manages event distribution to subscribers with filtering support.
//
// Thread safety:
//   - All methods are safe for concurrent use
//   - Multiple goroutines can publish and subscribe simultaneously
//   - Non-blocking publish prevents slow subscribers from affecting publishers
//
// Slow consumer handling:
//   - Subscribers receive events through buffered channels
//   - If a subscriber's buffer is full, events are dropped for that subscriber
//   - Other subscribers are not affected by slow consumers
type Bus interface {
	// Publish sends an event to all matching subscribers.
	// Returns an error only if the bus is closed.
	// Never blocks on slow subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe creates a subscription with optional filtering.
	// Returns a channel for receiving events and a cleanup function.
	// The cleanup function must be called to prevent resource leaks.
	Subscribe(filter Filter, bufferSize int) (<-chan Event, func())

	// Close shuts down the bus and all subscriptions.
	// After Close returns, Publish will return an error.
	Close() error
}

// defaultBufferSize is used when Subscribe is called with bufferSize <= 0.
const defaultBufferSize = 64

// DefaultBus implements Bus with buffered channels and non-blocking sends.
type DefaultBus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription
	closed      bool
	dropped     atomic.Int64
}

// subscription is a single subscriber with its filter and delivery channel.
type subscription struct {
	id     string
	ch     chan Event
	filter Filter
}

// NewBus creates a new DefaultBus ready for use.
func NewBus() *DefaultBus {
	return &DefaultBus{
		subscribers: make(map[string]*subscription),
	}
}

// Publish sends the event to every subscriber whose filter matches.
// Delivery is non-blocking; events are dropped for subscribers whose
// buffers are full.
func (b *DefaultBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	for _, sub := range b.subscribers {
		if !sub.filter.Matches(event) {
			continue
		}

		select {
		case sub.ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Subscriber buffer full, drop rather than block.
			b.dropped.Add(1)
		}
	}

	return nil
}

// Subscribe registers a new subscriber and returns its delivery channel
// together with an unsubscribe function. The channel is closed on
// unsubscribe and on bus Close.
func (b *DefaultBus) Subscribe(filter Filter, bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	sub := &subscription{
		id:     uuid.New().String(),
		ch:     make(chan Event, bufferSize),
		filter: filter,
	}

	b.mu.Lock()
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[sub.id]; ok {
				delete(b.subscribers, sub.id)
				close(sub.ch)
			}
		})
	}

	return sub.ch, unsubscribe
}

// Dropped returns the total number of events dropped for slow subscribers.
func (b *DefaultBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close shuts down the bus, closing every subscriber channel.
func (b *DefaultBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}

	return nil
}
