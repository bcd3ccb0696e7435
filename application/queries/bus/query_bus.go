package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Query represents a read-only request.
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type.
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus dispatches queries to their registered handlers.
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

// NewQueryBus creates a query bus.
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

// Register binds a handler to a query type.
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates the query, dispatches it and returns the result.
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for query type %T", query)
	}

	return handler.Handle(ctx, query)
}
