package commands

import "mailflow/pkg/errors"

// DeletePlanCommand removes a mail plan.
type DeletePlanCommand struct {
	UserID string
	PlanID string
}

// Validate checks the command before dispatch.
func (c DeletePlanCommand) Validate() error {
	if c.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	if c.PlanID == "" {
		return errors.NewValidationError("plan id is required")
	}
	return nil
}
