package queries

import "mailflow/pkg/errors"

// GetPlanQuery fetches one plan for its owner.
type GetPlanQuery struct {
	UserID string
	PlanID string
}

// Validate checks the query before dispatch.
func (q GetPlanQuery) Validate() error {
	if q.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	if q.PlanID == "" {
		return errors.NewValidationError("plan id is required")
	}
	return nil
}
