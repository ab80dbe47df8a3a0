package events

import (
	"sync"

	"github.com/kcaldas/synopsis/pkg/logging"
)

// EventHandler is a function that handles an event
type EventHandler func(event interface{})

// Publisher allows publishing events
type Publisher interface {
	Publish(eventType string, event interface{})
}

// Subscriber allows subscribing to events
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler)
}

// EventBus provides both publishing and subscribing
type EventBus interface {
	Publisher
	Subscriber
}

// InMemoryBus implements EventBus with synchronous in-process delivery.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
	logger      logging.Logger
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &InMemoryBus{
		subscribers: make(map[string][]EventHandler),
		logger:      logging.NewComponentLogger("events"),
	}
}

// Subscribe adds a handler for a specific event type.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers event to every subscriber of eventType, in subscription
// order, before returning. A panicking handler is logged and skipped.
func (b *InMemoryBus) Publish(eventType string, event interface{}) {
	for _, handler := range b.handlersFor(eventType) {
		b.deliver(eventType, handler, event)
	}
}

func (b *InMemoryBus) deliver(eventType string, handler EventHandler, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "topic", eventType, "panic", r)
		}
	}()
	handler(event)
}

// handlersFor snapshots handlers for the topic.
func (b *InMemoryBus) handlersFor(eventType string) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]EventHandler, len(b.subscribers[eventType]))
	copy(handlers, b.subscribers[eventType])
	return handlers
}

// NoOpEventBus is an event bus that does nothing (for testing)
type NoOpEventBus struct{}

// Publish does nothing
func (n *NoOpEventBus) Publish(topic string, event interface{}) {}

// Subscribe does nothing
func (n *NoOpEventBus) Subscribe(topic string, handler EventHandler) {}
