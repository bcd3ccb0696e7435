package queries

import "mailflow/pkg/errors"

// ListPlansQuery fetches all plans for a user, newest first.
type ListPlansQuery struct {
	UserID string
}

// Validate checks the query before dispatch.
func (q ListPlansQuery) Validate() error {
	if q.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	return nil
}

// ListEmailLogsQuery fetches the send log for a plan.
type ListEmailLogsQuery struct {
	UserID string
	PlanID string
}

// Validate checks the query before dispatch.
func (q ListEmailLogsQuery) Validate() error {
	if q.UserID == "" {
		return errors.NewValidationError("user id is required")
	}
	if q.PlanID == "" {
		return errors.NewValidationError("plan id is required")
	}
	return nil
}
