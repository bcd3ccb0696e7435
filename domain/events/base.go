package events

import (
	"time"
)

// Source identifies this service in published events.
const Source = "mailflow"

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// PlanSaved is raised when a mail plan is created or updated.
type PlanSaved struct {
	BaseEvent
	PlanID      string `json:"plan_id"`
	UserID      string `json:"user_id"`
	TriggerType string `json:"trigger_type"`
	Created     bool   `json:"created"`
}

// NewPlanSaved creates a PlanSaved event.
func NewPlanSaved(planID, userID, triggerType string, created bool, timestamp time.Time) PlanSaved {
	return PlanSaved{
		BaseEvent: BaseEvent{
			AggregateID: planID,
			EventType:   "plan.saved",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanID:      planID,
		UserID:      userID,
		TriggerType: triggerType,
		Created:     created,
	}
}

// PlanDeleted is raised when a mail plan is removed.
type PlanDeleted struct {
	BaseEvent
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
}

// NewPlanDeleted creates a PlanDeleted event.
func NewPlanDeleted(planID, userID string, timestamp time.Time) PlanDeleted {
	return PlanDeleted{
		BaseEvent: BaseEvent{
			AggregateID: planID,
			EventType:   "plan.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanID: planID,
		UserID: userID,
	}
}

// FlowExecutionRequested is raised when a plan's flow should run.
// A worker consuming the event performs the traversal and the sends.
type FlowExecutionRequested struct {
	BaseEvent
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
	Reason string `json:"reason"` // "trigger" or "on_signup"
}

// NewFlowExecutionRequested creates a FlowExecutionRequested event.
func NewFlowExecutionRequested(planID, userID, reason string, timestamp time.Time) FlowExecutionRequested {
	return FlowExecutionRequested{
		BaseEvent: BaseEvent{
			AggregateID: planID,
			EventType:   "flow.execution_requested",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanID: planID,
		UserID: userID,
		Reason: reason,
	}
}

// SendScheduled is raised for every email the flow runner schedules.
type SendScheduled struct {
	BaseEvent
	PlanID    string    `json:"plan_id"`
	LogID     string    `json:"log_id"`
	Recipient string    `json:"recipient"`
	SendAt    time.Time `json:"send_at"`
}

// NewSendScheduled creates a SendScheduled event.
func NewSendScheduled(planID, logID, recipient string, sendAt, timestamp time.Time) SendScheduled {
	return SendScheduled{
		BaseEvent: BaseEvent{
			AggregateID: planID,
			EventType:   "send.scheduled",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanID:    planID,
		LogID:     logID,
		Recipient: recipient,
		SendAt:    sendAt,
	}
}
