package handlers

import (
	"context"
	"fmt"

	"mailflow/application/ports"
	"mailflow/application/queries"
	"mailflow/application/queries/bus"
	"mailflow/domain/flow"
)

// GetPlanHandler returns one plan with its recipient projected from
// the flow.
type GetPlanHandler struct {
	plans ports.PlanRepository
}

// NewGetPlanHandler creates the handler.
func NewGetPlanHandler(plans ports.PlanRepository) *GetPlanHandler {
	return &GetPlanHandler{plans: plans}
}

// Handle implements bus.QueryHandler. The result is a *flow.Plan.
func (h *GetPlanHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetPlanQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	plan, err := h.plans.GetByID(ctx, q.UserID, q.PlanID)
	if err != nil {
		return nil, err
	}
	return projectRecipient(plan), nil
}

// ListPlansHandler returns all of a user's plans.
type ListPlansHandler struct {
	plans ports.PlanRepository
}

// NewListPlansHandler creates the handler.
func NewListPlansHandler(plans ports.PlanRepository) *ListPlansHandler {
	return &ListPlansHandler{plans: plans}
}

// Handle implements bus.QueryHandler. The result is a []*flow.Plan.
func (h *ListPlansHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListPlansQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	plans, err := h.plans.List(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	for i, p := range plans {
		plans[i] = projectRecipient(p)
	}
	return plans, nil
}

// ListEmailLogsHandler returns a plan's send log.
type ListEmailLogsHandler struct {
	plans ports.PlanRepository
	logs  ports.EmailLogRepository
}

// NewListEmailLogsHandler creates the handler.
func NewListEmailLogsHandler(plans ports.PlanRepository, logs ports.EmailLogRepository) *ListEmailLogsHandler {
	return &ListEmailLogsHandler{plans: plans, logs: logs}
}

// Handle implements bus.QueryHandler. The result is a []*flow.EmailLog.
func (h *ListEmailLogsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListEmailLogsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	// 404 for unknown plans rather than an empty log.
	if _, err := h.plans.GetByID(ctx, q.UserID, q.PlanID); err != nil {
		return nil, err
	}
	return h.logs.ListByPlan(ctx, q.UserID, q.PlanID)
}

// projectRecipient overrides the flat recipient with the first one
// found in the flow, so list and detail reads reflect what the flow
// will actually do. Plans without flow nodes keep their stored value.
func projectRecipient(plan *flow.Plan) *flow.Plan {
	doc := flow.Reconstruct(*plan)
	if len(doc.Nodes) == 0 {
		return plan
	}
	if recipient := flow.RecipientFromNodes(doc.Nodes); recipient != flow.FallbackRecipient {
		plan.RecipientEmail = recipient
	}
	return plan
}
