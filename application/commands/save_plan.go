package commands

import (
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
	"mailflow/pkg/utils"
)

// SavePlanCommand creates or fully replaces a mail plan.
type SavePlanCommand struct {
	UserID  string
	PlanID  string
	Create  bool
	Payload flow.SavePayload
}

// Validate checks the command before dispatch.
func (c SavePlanCommand) Validate() error {
	if c.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	if c.PlanID == "" {
		return errors.NewValidationError("plan id is required")
	}
	if err := utils.ValidateStruct(c.Payload); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

// PlanPatch is a partial update. Nil fields are left untouched.
type PlanPatch struct {
	Name           *string           `json:"name,omitempty"`
	Subject        *string           `json:"subject,omitempty"`
	Content        *string           `json:"content,omitempty"`
	TriggerType    *flow.TriggerType `json:"trigger_type,omitempty"`
	RecipientEmail *string           `json:"recipient_email,omitempty"`
	Status         *flow.PlanStatus  `json:"status,omitempty"`
	TemplateVars   *flow.Vars        `json:"template_vars,omitempty"`
	Flow           *flow.FlowDoc     `json:"flow,omitempty"`
}

// PatchPlanCommand applies a partial update to a mail plan.
type PatchPlanCommand struct {
	UserID string
	PlanID string
	Patch  PlanPatch
}

// Validate checks the command before dispatch.
func (c PatchPlanCommand) Validate() error {
	if c.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	if c.PlanID == "" {
		return errors.NewValidationError("plan id is required")
	}
	if c.Patch.Status != nil {
		switch *c.Patch.Status {
		case flow.PlanStatusActive, flow.PlanStatusScheduled, flow.PlanStatusSent,
			flow.PlanStatusFailed, flow.PlanStatusPaused:
		default:
			return errors.NewValidationError("invalid status")
		}
	}
	return nil
}
