package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailflow/application/ports"
	domainconfig "mailflow/domain/config"
	"mailflow/domain/events"
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
	"mailflow/pkg/observability"
)

// ExecutionResult summarizes one flow run.
type ExecutionResult struct {
	Scheduled int `json:"scheduled"`
	SentNow   int `json:"sent_now"`
}

// TriggerResult is the outcome of a trigger request. Status is
// "scheduled" when the run was queued and "sent" when it ran
// synchronously, so clients never have to sniff the message text.
type TriggerResult struct {
	Queued  bool   `json:"queued"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FlowRunner walks a plan's flow graph from its start node, turning
// delay nodes into accumulated send offsets and email nodes into
// logged sends. Zero-offset sends go out immediately through the mail
// sender; the rest are left pending for the scheduler.
type FlowRunner struct {
	plans     ports.PlanRepository
	logs      ports.EmailLogRepository
	sender    ports.MailSender
	publisher ports.EventPublisher
	metrics   observability.MetricsPublisher
	tracer    *observability.Tracer
	logger    *zap.Logger
	cfg       *domainconfig.DomainConfig

	// queueEnabled selects the 202 enqueue path for triggers; when
	// false, or when publishing fails, the flow runs synchronously.
	queueEnabled bool

	now func() time.Time
}

// NewFlowRunner creates the runner.
func NewFlowRunner(
	plans ports.PlanRepository,
	logs ports.EmailLogRepository,
	sender ports.MailSender,
	publisher ports.EventPublisher,
	metrics observability.MetricsPublisher,
	tracer *observability.Tracer,
	logger *zap.Logger,
	cfg *domainconfig.DomainConfig,
	queueEnabled bool,
) *FlowRunner {
	return &FlowRunner{
		plans:        plans,
		logs:         logs,
		sender:       sender,
		publisher:    publisher,
		metrics:      metrics,
		tracer:       tracer,
		logger:       logger,
		cfg:          cfg,
		queueEnabled: queueEnabled,
		now:          time.Now,
	}
}

// Trigger requests a run of the plan's flow. The queued path publishes
// an execution event and marks the plan scheduled; if queueing is off
// or the publish fails, the flow runs synchronously and the plan is
// marked sent.
func (r *FlowRunner) Trigger(ctx context.Context, userID, planID string) (TriggerResult, error) {
	plan, err := r.plans.GetByID(ctx, userID, planID)
	if err != nil {
		return TriggerResult{}, err
	}

	if r.queueEnabled {
		event := events.NewFlowExecutionRequested(planID, userID, "trigger", r.now())
		if err := r.publisher.Publish(ctx, event); err == nil {
			plan.Status = flow.PlanStatusScheduled
			if err := r.plans.Save(ctx, userID, plan); err != nil {
				r.logger.Warn("Failed to mark plan scheduled",
					zap.String("plan_id", planID),
					zap.Error(err),
				)
			}
			r.metrics.Count(ctx, "TriggersEnqueued", 1, nil)
			return TriggerResult{
				Queued:  true,
				Status:  "scheduled",
				Message: "Flow enqueued",
			}, nil
		}
		r.logger.Warn("Queue unavailable, running flow synchronously",
			zap.String("plan_id", planID),
		)
	}

	if _, err := r.Execute(ctx, userID, planID); err != nil {
		plan.Status = flow.PlanStatusFailed
		_ = r.plans.Save(ctx, userID, plan)
		return TriggerResult{}, err
	}

	plan.Status = flow.PlanStatusSent
	if err := r.plans.Save(ctx, userID, plan); err != nil {
		r.logger.Warn("Failed to mark plan sent",
			zap.String("plan_id", planID),
			zap.Error(err),
		)
	}
	return TriggerResult{
		Status:  "sent",
		Message: "Flow executed synchronously",
	}, nil
}

type traversalStep struct {
	nodeID string
	offset time.Duration
}

// Execute runs the flow immediately: it reconstructs the plan's graph,
// walks it depth-first from the start node and schedules one send per
// email node reached, carrying each branch's accumulated delay.
func (r *FlowRunner) Execute(ctx context.Context, userID, planID string) (ExecutionResult, error) {
	var result ExecutionResult
	err := r.tracer.Trace(ctx, "flow.execute", func(ctx context.Context) error {
		plan, err := r.plans.GetByID(ctx, userID, planID)
		if err != nil {
			return err
		}

		doc := flow.Reconstruct(*plan)
		g := flow.NewGraph(0, 0)
		g.Load(doc.Nodes, doc.Edges)
		if err := g.Validate(); err != nil {
			return errors.NewValidationError(err.Error())
		}

		start, ok := startNode(doc.Nodes)
		if !ok {
			return errors.NewValidationError("flow has no start or trigger node")
		}

		outgoing := make(map[string][]string, len(doc.Nodes))
		for _, e := range doc.Edges {
			outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		}

		visited := make(map[string]bool, len(doc.Nodes))
		stack := []traversalStep{{nodeID: start.ID}}
		steps := 0

		for len(stack) > 0 {
			steps++
			if steps > r.cfg.MaxTraversalSteps {
				r.logger.Warn("Flow traversal step limit reached",
					zap.String("plan_id", planID),
					zap.Int("limit", r.cfg.MaxTraversalSteps),
				)
				break
			}

			step := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[step.nodeID] {
				continue
			}
			visited[step.nodeID] = true

			node, ok := g.NodeByID(step.nodeID)
			if !ok {
				continue
			}

			offset := step.offset
			switch d := node.Data.(type) {
			case flow.DelayData:
				offset += delayDuration(d)
			case flow.EmailData:
				sentNow, err := r.scheduleSend(ctx, userID, plan, d, offset)
				if err != nil {
					return err
				}
				result.Scheduled++
				if sentNow {
					result.SentNow++
				}
			}

			targets := outgoing[step.nodeID]
			for i := len(targets) - 1; i >= 0; i-- {
				if !visited[targets[i]] {
					stack = append(stack, traversalStep{nodeID: targets[i], offset: offset})
				}
			}
		}
		return nil
	})
	return result, err
}

// scheduleSend renders and logs one send. Sends with no delay go out
// immediately; delayed ones stay pending with their due time.
func (r *FlowRunner) scheduleSend(ctx context.Context, userID string, plan *flow.Plan, email flow.EmailData, offset time.Duration) (sentNow bool, err error) {
	recipient := email.RecipientEmail
	if recipient == "" {
		recipient = plan.RecipientEmail
	}
	if recipient == "" {
		recipient = flow.FallbackRecipient
	}

	subject := email.Subject
	if subject == "" {
		subject = plan.Subject
	}
	body := email.Body
	if body == "" {
		body = plan.Content
	}

	// Node variables override plan variables.
	vars := plan.TemplateVars.Merge(email.TemplateVars)
	subject = flow.RenderTemplate(subject, vars)
	body = flow.RenderTemplate(body, vars)

	now := r.now()
	log := &flow.EmailLog{
		ID:        uuid.New().String(),
		PlanID:    plan.ID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    flow.EmailLogPending,
		SendAt:    now.Add(offset),
		CreatedAt: now,
	}

	if offset == 0 {
		if sendErr := r.sender.Send(ctx, recipient, subject, body); sendErr != nil {
			log.Status = flow.EmailLogFailed
			log.Error = sendErr.Error()
			r.logger.Error("Send failed",
				zap.String("plan_id", plan.ID),
				zap.String("recipient", recipient),
				zap.Error(sendErr),
			)
		} else {
			log.Status = flow.EmailLogSent
			sentNow = true
		}
	}

	if err := r.logs.Save(ctx, userID, log); err != nil {
		return false, err
	}

	r.metrics.Count(ctx, "SendsScheduled", 1, map[string]string{
		"status": string(log.Status),
	})

	event := events.NewSendScheduled(plan.ID, log.ID, recipient, log.SendAt, now)
	if pubErr := r.publisher.Publish(ctx, event); pubErr != nil {
		r.logger.Warn("Failed to publish send event",
			zap.String("plan_id", plan.ID),
			zap.Error(pubErr),
		)
	}
	return sentNow, nil
}

// startNode picks the traversal root: the first start node, or the
// first trigger node when no explicit start exists.
func startNode(nodes []flow.Node) (flow.Node, bool) {
	for _, n := range nodes {
		if n.Type == flow.NodeTypeStart {
			return n, true
		}
	}
	for _, n := range nodes {
		if n.Type == flow.NodeTypeTrigger {
			return n, true
		}
	}
	return flow.Node{}, false
}

func delayDuration(d flow.DelayData) time.Duration {
	switch d.Unit {
	case flow.DelayMinutes:
		return time.Duration(d.Duration * float64(time.Minute))
	case flow.DelayHours:
		return time.Duration(d.Duration * float64(time.Hour))
	case flow.DelayDays:
		return time.Duration(d.Duration * 24 * float64(time.Hour))
	default:
		return 0
	}
}
