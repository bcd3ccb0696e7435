package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Command represents a state-changing request.
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type.
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware wraps a command handler.
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands to their registered handlers.
type CommandBus struct {
	mu         sync.RWMutex
	handlers   map[reflect.Type]CommandHandler
	middleware []Middleware
}

// NewCommandBus creates a command bus.
func NewCommandBus(middleware ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:   make(map[reflect.Type]CommandHandler),
		middleware: middleware,
	}
}

// Register binds a handler to a command type. Registering the same
// type twice is an error.
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Apply middleware outermost-first.
	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i](handler)
	}

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}
	b.handlers[t] = handler
	return nil
}

// Send validates the command and dispatches it to its handler.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for command type %T", cmd)
	}

	return handler.Handle(ctx, cmd)
}

// LoggingMiddleware logs every command with its outcome.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := reflect.TypeOf(cmd).Name()
			err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Error("Command failed",
					zap.String("command", name),
					zap.Error(err),
				)
				return err
			}
			logger.Debug("Command handled", zap.String("command", name))
			return nil
		})
	}
}
