package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailflow/application/commands"
	"mailflow/application/commands/bus"
	"mailflow/application/queries"
	querybus "mailflow/application/queries/bus"
	"mailflow/application/services"
	"mailflow/domain/flow"
	"mailflow/pkg/auth"
	"mailflow/pkg/errors"
	"mailflow/pkg/utils"
)

// PlanHandler serves the mail plan CRUD, trigger and log endpoints.
type PlanHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	runner     *services.FlowRunner
	errHandler *errors.ErrorHandler
	logger     *zap.Logger
}

// NewPlanHandler creates the handler.
func NewPlanHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	runner *services.FlowRunner,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *PlanHandler {
	return &PlanHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		runner:     runner,
		errHandler: errHandler,
		logger:     logger,
	}
}

// TriggerRequest is the body of POST /api/mailplans/{planID}/trigger/.
type TriggerRequest struct {
	Confirm bool `json:"confirm"`
}

// TriggerResponse carries the explicit status alongside the message so
// clients do not have to sniff the message string.
type TriggerResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// List handles GET /api/mailplans.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListPlansQuery{UserID: userCtx.UserID})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	plans, _ := result.([]*flow.Plan)
	if plans == nil {
		plans = []*flow.Plan{}
	}
	h.respondJSON(w, http.StatusOK, plans)
}

// Create handles POST /api/mailplans.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var payload flow.SavePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError(err.Error()))
		return
	}

	planID := uuid.New().String()
	cmd := commands.SavePlanCommand{
		UserID:  userCtx.UserID,
		PlanID:  planID,
		Create:  true,
		Payload: payload,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.respondPlan(w, r, userCtx.UserID, planID, http.StatusCreated)
}

// Get handles GET /api/mailplans/{planID}.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	h.respondPlan(w, r, userCtx.UserID, chi.URLParam(r, "planID"), http.StatusOK)
}

// Update handles PUT /api/mailplans/{planID}, a full replacement.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var payload flow.SavePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError(err.Error()))
		return
	}

	planID := chi.URLParam(r, "planID")
	cmd := commands.SavePlanCommand{
		UserID:  userCtx.UserID,
		PlanID:  planID,
		Payload: payload,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.respondPlan(w, r, userCtx.UserID, planID, http.StatusOK)
}

// Patch handles PATCH /api/mailplans/{planID}, a partial update.
func (h *PlanHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var patch commands.PlanPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	planID := chi.URLParam(r, "planID")
	cmd := commands.PatchPlanCommand{
		UserID: userCtx.UserID,
		PlanID: planID,
		Patch:  patch,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	h.respondPlan(w, r, userCtx.UserID, planID, http.StatusOK)
}

// Delete handles DELETE /api/mailplans/{planID}.
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	cmd := commands.DeletePlanCommand{
		UserID: userCtx.UserID,
		PlanID: chi.URLParam(r, "planID"),
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Trigger handles POST /api/mailplans/{planID}/trigger/. The run is
// enqueued when the event bus is up (202) and executed inline
// otherwise (200).
func (h *PlanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if !req.Confirm {
		h.errHandler.Handle(w, r, errors.NewValidationError("confirmation required"))
		return
	}

	result, err := h.runner.Trigger(r.Context(), userCtx.UserID, chi.URLParam(r, "planID"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	h.respondJSON(w, status, TriggerResponse{
		Message: result.Message,
		Status:  result.Status,
	})
}

// Logs handles GET /api/mailplans/{planID}/logs/.
func (h *PlanHandler) Logs(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListEmailLogsQuery{
		UserID: userCtx.UserID,
		PlanID: chi.URLParam(r, "planID"),
	})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	logs, _ := result.([]*flow.EmailLog)
	if logs == nil {
		logs = []*flow.EmailLog{}
	}
	h.respondJSON(w, http.StatusOK, logs)
}

func (h *PlanHandler) respondPlan(w http.ResponseWriter, r *http.Request, userID, planID string, status int) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetPlanQuery{UserID: userID, PlanID: planID})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, status, result)
}

func (h *PlanHandler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
