package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailflow/application/commands"
	"mailflow/application/commands/bus"
	"mailflow/application/ports"
	domainconfig "mailflow/domain/config"
	"mailflow/domain/events"
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
	"mailflow/pkg/observability"
)

// SavePlanHandler persists created and replaced plans, publishing the
// matching domain events. Creating an on_signup plan immediately
// requests a flow execution, matching the save semantics clients
// expect.
type SavePlanHandler struct {
	plans     ports.PlanRepository
	publisher ports.EventPublisher
	metrics   observability.MetricsPublisher
	logger    *zap.Logger
	cfg       *domainconfig.DomainConfig
}

// NewSavePlanHandler creates the handler.
func NewSavePlanHandler(
	plans ports.PlanRepository,
	publisher ports.EventPublisher,
	metrics observability.MetricsPublisher,
	logger *zap.Logger,
	cfg *domainconfig.DomainConfig,
) *SavePlanHandler {
	return &SavePlanHandler{
		plans:     plans,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Handle implements bus.CommandHandler.
func (h *SavePlanHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.SavePlanCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	if err := h.checkFlow(c.Payload.Flow); err != nil {
		return err
	}

	now := time.Now()
	plan := &flow.Plan{
		ID:             c.PlanID,
		Name:           c.Payload.Name,
		Subject:        c.Payload.Subject,
		Content:        c.Payload.Content,
		TriggerType:    c.Payload.TriggerType,
		RecipientEmail: c.Payload.RecipientEmail,
		TemplateVars:   c.Payload.TemplateVars,
		Status:         flow.PlanStatusActive,
		CreatedAt:      now,
		Flow:           &flow.FlowDoc{Nodes: c.Payload.Flow.Nodes, Edges: c.Payload.Flow.Edges},
	}

	if !c.Create {
		existing, err := h.plans.GetByID(ctx, c.UserID, c.PlanID)
		if err != nil {
			return err
		}
		plan.Status = existing.Status
		plan.CreatedAt = existing.CreatedAt
		plan.ScheduledTime = existing.ScheduledTime
	}

	if err := h.plans.Save(ctx, c.UserID, plan); err != nil {
		return err
	}

	h.metrics.Count(ctx, "PlansSaved", 1, map[string]string{
		"operation": operationName(c.Create),
	})

	toPublish := []events.DomainEvent{
		events.NewPlanSaved(c.PlanID, c.UserID, string(plan.TriggerType), c.Create, now),
	}
	if c.Create && plan.TriggerType == flow.TriggerOnSignup {
		toPublish = append(toPublish,
			events.NewFlowExecutionRequested(c.PlanID, c.UserID, "on_signup", now))
	}
	if err := h.publisher.PublishBatch(ctx, toPublish); err != nil {
		// The plan is saved; losing the event is logged, not fatal.
		h.logger.Warn("Failed to publish plan events",
			zap.String("plan_id", c.PlanID),
			zap.Error(err),
		)
	}

	return nil
}

func (h *SavePlanHandler) checkFlow(doc flow.FlowDoc) error {
	if len(doc.Nodes) > h.cfg.MaxNodesPerFlow {
		return errors.NewValidationError(
			fmt.Sprintf("flow exceeds %d nodes", h.cfg.MaxNodesPerFlow))
	}
	if len(doc.Edges) > h.cfg.MaxEdgesPerFlow {
		return errors.NewValidationError(
			fmt.Sprintf("flow exceeds %d edges", h.cfg.MaxEdgesPerFlow))
	}

	g := flow.NewGraph(0, 0)
	g.Load(doc.Nodes, doc.Edges)
	if err := g.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

func operationName(create bool) string {
	if create {
		return "create"
	}
	return "update"
}
