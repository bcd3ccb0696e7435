package flow

import (
	"time"
)

// PlanStatus is the lifecycle state of a mail plan.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusScheduled PlanStatus = "scheduled"
	PlanStatusSent      PlanStatus = "sent"
	PlanStatusFailed    PlanStatus = "failed"
	PlanStatusPaused    PlanStatus = "paused"
)

// FlowDoc is the embedded nodes/edges document stored with a plan.
type FlowDoc struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Plan is a persisted mail plan. Older records predate the embedded
// flow document, so the flat fields and the legacy flow_json and
// top-level nodes/edges shapes are all kept readable; Reconstruct
// picks whichever representation is present.
type Plan struct {
	ID             string      `json:"id,omitempty"`
	Name           string      `json:"name"`
	Subject        string      `json:"subject,omitempty"`
	Content        string      `json:"content,omitempty"`
	TriggerType    TriggerType `json:"trigger_type,omitempty"`
	RecipientEmail string      `json:"recipient_email,omitempty"`
	RecipientName  string      `json:"recipient_name,omitempty"`
	TemplateVars   *Vars       `json:"template_vars,omitempty"`
	Status         PlanStatus  `json:"status,omitempty"`
	ScheduledTime  *time.Time  `json:"scheduled_time,omitempty"`
	CreatedAt      time.Time   `json:"created_at,omitempty"`

	Flow     *FlowDoc `json:"flow,omitempty"`
	FlowJSON *FlowDoc `json:"flow_json,omitempty"`
	Nodes    []Node   `json:"nodes,omitempty"`
	Edges    []Edge   `json:"edges,omitempty"`
}

// EmailLogStatus is the delivery state of one logged send.
type EmailLogStatus string

const (
	EmailLogPending EmailLogStatus = "pending"
	EmailLogSent    EmailLogStatus = "sent"
	EmailLogFailed  EmailLogStatus = "failed"
)

// EmailLog records a single scheduled or attempted send.
type EmailLog struct {
	ID        string         `json:"id"`
	PlanID    string         `json:"plan_id"`
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Status    EmailLogStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	SendAt    time.Time      `json:"send_at"`
	CreatedAt time.Time      `json:"created_at"`
}
