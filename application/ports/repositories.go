package ports

import (
	"context"

	"mailflow/domain/events"
	"mailflow/domain/flow"
)

// PlanRepository is the port for mail plan persistence. Plans are
// scoped to their owning user; every method takes the owner's id.
type PlanRepository interface {
	// Save persists a plan (create or update).
	Save(ctx context.Context, userID string, plan *flow.Plan) error

	// GetByID retrieves one plan.
	GetByID(ctx context.Context, userID, planID string) (*flow.Plan, error)

	// List retrieves all plans for a user, newest first.
	List(ctx context.Context, userID string) ([]*flow.Plan, error)

	// Delete removes a plan.
	Delete(ctx context.Context, userID, planID string) error
}

// EmailLogRepository is the port for send log persistence.
type EmailLogRepository interface {
	// Save persists a log entry (create or update).
	Save(ctx context.Context, userID string, log *flow.EmailLog) error

	// ListByPlan retrieves the log entries for a plan.
	ListByPlan(ctx context.Context, userID, planID string) ([]*flow.EmailLog, error)
}

// MailSender delivers one rendered email. The synchronous trigger
// fallback uses it directly; the queued path delivers from a worker.
type MailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish sends a single event.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventHandler processes domain events.
type EventHandler interface {
	// Handle processes an event.
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event type.
	CanHandle(eventType string) bool
}

// EventBus is an EventPublisher with local subscription support.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler.
	Unsubscribe(eventType string, handler EventHandler) error
}
