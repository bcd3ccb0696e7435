package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailflow/application/commands"
	"mailflow/application/commands/bus"
	"mailflow/application/ports"
	"mailflow/domain/events"
)

// PatchPlanHandler applies partial updates. Only the fields present in
// the patch change; the embedded flow is replaced wholesale when sent.
type PatchPlanHandler struct {
	plans     ports.PlanRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewPatchPlanHandler creates the handler.
func NewPatchPlanHandler(plans ports.PlanRepository, publisher ports.EventPublisher, logger *zap.Logger) *PatchPlanHandler {
	return &PatchPlanHandler{plans: plans, publisher: publisher, logger: logger}
}

// Handle implements bus.CommandHandler.
func (h *PatchPlanHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.PatchPlanCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	plan, err := h.plans.GetByID(ctx, c.UserID, c.PlanID)
	if err != nil {
		return err
	}

	p := c.Patch
	if p.Name != nil {
		plan.Name = *p.Name
	}
	if p.Subject != nil {
		plan.Subject = *p.Subject
	}
	if p.Content != nil {
		plan.Content = *p.Content
	}
	if p.TriggerType != nil {
		plan.TriggerType = *p.TriggerType
	}
	if p.RecipientEmail != nil {
		plan.RecipientEmail = *p.RecipientEmail
	}
	if p.Status != nil {
		plan.Status = *p.Status
	}
	if p.TemplateVars != nil {
		plan.TemplateVars = p.TemplateVars
	}
	if p.Flow != nil {
		plan.Flow = p.Flow
	}

	if err := h.plans.Save(ctx, c.UserID, plan); err != nil {
		return err
	}

	event := events.NewPlanSaved(c.PlanID, c.UserID, string(plan.TriggerType), false, time.Now())
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish plan event",
			zap.String("plan_id", c.PlanID),
			zap.Error(err),
		)
	}
	return nil
}
