package memory

import (
	"context"
	"sync"

	"mailflow/application/ports"
	"mailflow/domain/events"
)

// EventBus is an in-process ports.EventBus. Published events go to
// local subscribers and are retained for inspection, which is what
// tests and queue-less local runs need.
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[string][]ports.EventHandler
	published []events.DomainEvent
}

// NewEventBus creates an empty in-process bus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]ports.EventHandler)}
}

var _ ports.EventBus = (*EventBus)(nil)

// Publish delivers one event to its subscribers.
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch delivers events in order.
func (b *EventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	b.mu.Lock()
	b.published = append(b.published, batch...)
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, event := range batch {
		for _, h := range b.handlers[event.GetEventType()] {
			if err := h.Handle(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// Subscribe registers a handler for an event type.
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a handler.
func (b *EventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.handlers[eventType][:0]
	for _, h := range b.handlers[eventType] {
		if h != handler {
			kept = append(kept, h)
		}
	}
	b.handlers[eventType] = kept
	return nil
}

// Published returns every event published so far.
func (b *EventBus) Published() []events.DomainEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.DomainEvent(nil), b.published...)
}
