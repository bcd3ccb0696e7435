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

// DeletePlanHandler removes a plan and announces the deletion.
type DeletePlanHandler struct {
	plans     ports.PlanRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewDeletePlanHandler creates the handler.
func NewDeletePlanHandler(plans ports.PlanRepository, publisher ports.EventPublisher, logger *zap.Logger) *DeletePlanHandler {
	return &DeletePlanHandler{plans: plans, publisher: publisher, logger: logger}
}

// Handle implements bus.CommandHandler.
func (h *DeletePlanHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.DeletePlanCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	// Existence check so deletes of unknown plans 404 instead of
	// silently succeeding.
	if _, err := h.plans.GetByID(ctx, c.UserID, c.PlanID); err != nil {
		return err
	}

	if err := h.plans.Delete(ctx, c.UserID, c.PlanID); err != nil {
		return err
	}

	event := events.NewPlanDeleted(c.PlanID, c.UserID, time.Now())
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish plan deletion",
			zap.String("plan_id", c.PlanID),
			zap.Error(err),
		)
	}
	return nil
}
