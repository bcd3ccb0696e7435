package memory

import (
	"context"
	"sort"
	"sync"

	"mailflow/application/ports"
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
)

// PlanRepository is an in-memory ports.PlanRepository. It backs tests
// and local runs without DynamoDB.
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[string]map[string]*flow.Plan // userID -> planID -> plan
}

// NewPlanRepository creates an empty in-memory repository.
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[string]map[string]*flow.Plan)}
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

// Save stores a copy of the plan.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *flow.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plans[userID] == nil {
		r.plans[userID] = make(map[string]*flow.Plan)
	}
	cp := *plan
	r.plans[userID][plan.ID] = &cp
	return nil
}

// GetByID returns a copy of the stored plan.
func (r *PlanRepository) GetByID(ctx context.Context, userID, planID string) (*flow.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.plans[userID][planID]
	if !ok {
		return nil, errors.NewNotFoundError("plan")
	}
	cp := *plan
	return &cp, nil
}

// List returns the user's plans, newest first.
func (r *PlanRepository) List(ctx context.Context, userID string) ([]*flow.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*flow.Plan, 0, len(r.plans[userID]))
	for _, plan := range r.plans[userID] {
		cp := *plan
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a plan.
func (r *PlanRepository) Delete(ctx context.Context, userID, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[userID][planID]; !ok {
		return errors.NewNotFoundError("plan")
	}
	delete(r.plans[userID], planID)
	return nil
}

// EmailLogRepository is an in-memory ports.EmailLogRepository.
type EmailLogRepository struct {
	mu   sync.RWMutex
	logs map[string][]*flow.EmailLog // userID -> logs
}

// NewEmailLogRepository creates an empty in-memory log store.
func NewEmailLogRepository() *EmailLogRepository {
	return &EmailLogRepository{logs: make(map[string][]*flow.EmailLog)}
}

var _ ports.EmailLogRepository = (*EmailLogRepository)(nil)

// Save appends or replaces a log entry.
func (r *EmailLogRepository) Save(ctx context.Context, userID string, log *flow.EmailLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *log
	for i, existing := range r.logs[userID] {
		if existing.ID == log.ID {
			r.logs[userID][i] = &cp
			return nil
		}
	}
	r.logs[userID] = append(r.logs[userID], &cp)
	return nil
}

// ListByPlan returns the log entries for one plan in insertion order.
func (r *EmailLogRepository) ListByPlan(ctx context.Context, userID, planID string) ([]*flow.EmailLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*flow.EmailLog
	for _, log := range r.logs[userID] {
		if log.PlanID == planID {
			cp := *log
			out = append(out, &cp)
		}
	}
	return out, nil
}
