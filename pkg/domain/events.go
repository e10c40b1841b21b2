package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventWorkflowStart EventType = "workflow_start"
	EventWorkflowEnd   EventType = "workflow_end"
	EventStatusChange  EventType = "status_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// WorkflowEvent represents the start or end of an orchestrator workflow.
type WorkflowEvent struct {
	EventBase
	Workflow string        `json:"workflow"`
	Viewport Viewport      `json:"viewport"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// StatusEvent represents an editor status change.
type StatusEvent struct {
	EventBase
	From EditorStatus `json:"from"`
	To   EditorStatus `json:"to"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnWorkflowStart func(context.Context, *WorkflowEvent)
	OnWorkflowEnd   func(context.Context, *WorkflowEvent)
	OnStatusChange  func(context.Context, *StatusEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnWorkflowStart: chain(h.OnWorkflowStart, other.OnWorkflowStart),
		OnWorkflowEnd:   chain(h.OnWorkflowEnd, other.OnWorkflowEnd),
		OnStatusChange:  chain(h.OnStatusChange, other.OnStatusChange),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
