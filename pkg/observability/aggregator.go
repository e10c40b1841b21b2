package observability

import (
	"context"
	"sync"

	"github.com/aretw0/easel/pkg/domain"
)

// StepFunc receives the result of a scenario step.
type StepFunc func(ctx context.Context, runID string, result domain.StepResult)

// RunFunc receives a finished run.
type RunFunc func(ctx context.Context, record *domain.RunRecord)

// Aggregator combines multiple observers into a single set of callbacks.
type Aggregator struct {
	mu    sync.RWMutex
	hooks domain.LifecycleHooks
	steps []StepFunc
	runs  []RunFunc
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddHooks registers lifecycle hooks. Hooks run in registration order.
func (a *Aggregator) AddHooks(h domain.LifecycleHooks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = a.hooks.Merge(h)
}

// AddStepObserver registers a step callback.
func (a *Aggregator) AddStepObserver(fn StepFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.steps = append(a.steps, fn)
}

// AddRunObserver registers a run callback.
func (a *Aggregator) AddRunObserver(fn RunFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, fn)
}

// Hooks returns lifecycle hooks calling every registered hook.
// Hooks added later are picked up by previously returned values.
func (a *Aggregator) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWorkflowStart: func(ctx context.Context, e *domain.WorkflowEvent) {
			if fn := a.current().OnWorkflowStart; fn != nil {
				fn(ctx, e)
			}
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			if fn := a.current().OnWorkflowEnd; fn != nil {
				fn(ctx, e)
			}
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			if fn := a.current().OnStatusChange; fn != nil {
				fn(ctx, e)
			}
		},
	}
}

func (a *Aggregator) current() domain.LifecycleHooks {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hooks
}

// ObserveStep forwards a step result to every registered observer.
func (a *Aggregator) ObserveStep(ctx context.Context, runID string, result domain.StepResult) {
	a.mu.RLock()
	steps := append([]StepFunc(nil), a.steps...)
	a.mu.RUnlock()
	for _, fn := range steps {
		fn(ctx, runID, result)
	}
}

// ObserveRun forwards a finished run to every registered observer.
func (a *Aggregator) ObserveRun(ctx context.Context, record *domain.RunRecord) {
	a.mu.RLock()
	runs := append([]RunFunc(nil), a.runs...)
	a.mu.RUnlock()
	for _, fn := range runs {
		fn(ctx, record)
	}
}
