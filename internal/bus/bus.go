package bus

import (
	"fmt"
	"sync"
)

// DefaultHistorySize is the number of recent events retained for replay.
const DefaultHistorySize = 256

// SubscriptionID is a unique identifier for event subscriptions.
type SubscriptionID string

// subscription is one registered handler.
type subscription struct {
	id        SubscriptionID
	eventType EventType
	handler   func(Event)
}

// Bus is a thread-safe pub/sub dispatcher with wildcard support and bounded
// event history. Dispatch is synchronous: Publish returns only after every
// matching handler has run, so subscribers always observe committed state
// in publication order.
type Bus struct {
	mu          sync.RWMutex
	subs        map[SubscriptionID]*subscription
	typedSubs   map[EventType]map[SubscriptionID]*subscription
	wildcards   map[SubscriptionID]*subscription
	history     []Event
	historySize int
	subCounter  uint64
	closed      bool
}

// NewBus creates a bus with the default history size.
func NewBus() *Bus {
	return NewBusWithConfig(DefaultHistorySize)
}

// NewBusWithConfig creates a bus with a custom history size.
func NewBusWithConfig(historySize int) *Bus {
	return &Bus{
		subs:        make(map[SubscriptionID]*subscription),
		typedSubs:   make(map[EventType]map[SubscriptionID]*subscription),
		wildcards:   make(map[SubscriptionID]*subscription),
		history:     make([]Event, 0, historySize),
		historySize: historySize,
	}
}

// Subscribe registers a handler for a specific event type.
// Use EventType("") to subscribe to all events.
func (b *Bus) Subscribe(eventType EventType, handler func(Event)) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ""
	}

	b.subCounter++
	id := SubscriptionID(fmt.Sprintf("sub_%d", b.subCounter))

	sub := &subscription{id: id, eventType: eventType, handler: handler}
	b.subs[id] = sub

	if eventType == "" {
		b.wildcards[id] = sub
	} else {
		if b.typedSubs[eventType] == nil {
			b.typedSubs[eventType] = make(map[SubscriptionID]*subscription)
		}
		b.typedSubs[eventType][id] = sub
	}

	return id
}

// Unsubscribe removes a subscription by id.
func (b *Bus) Unsubscribe(id SubscriptionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subs[id]
	if !exists {
		return fmt.Errorf("subscription %s not found", id)
	}
	delete(b.subs, id)

	if sub.eventType == "" {
		delete(b.wildcards, id)
	} else if subs, ok := b.typedSubs[sub.eventType]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.typedSubs, sub.eventType)
		}
	}

	return nil
}

// Publish records the event and invokes all matching handlers before
// returning.
func (b *Bus) Publish(event Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus is closed")
	}

	b.history = append(b.history, event)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}

	handlers := make([]func(Event), 0, len(b.wildcards))
	for _, sub := range b.wildcards {
		handlers = append(handlers, sub.handler)
	}
	for _, sub := range b.typedSubs[event.Type] {
		handlers = append(handlers, sub.handler)
	}
	b.mu.Unlock()

	// Handlers run outside the lock so they may subscribe or publish.
	for _, h := range handlers {
		h(event)
	}

	return nil
}

// History returns a copy of the retained event history.
func (b *Bus) History() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Event, len(b.history))
	copy(result, b.history)
	return result
}

// SubscriptionsCount returns the number of active subscriptions.
func (b *Bus) SubscriptionsCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts down the bus; further publishes and subscribes fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bus already closed")
	}
	b.closed = true
	b.subs = make(map[SubscriptionID]*subscription)
	b.typedSubs = make(map[EventType]map[SubscriptionID]*subscription)
	b.wildcards = make(map[SubscriptionID]*subscription)

	return nil
}
