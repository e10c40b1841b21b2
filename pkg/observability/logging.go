package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/easel/pkg/domain"
)

// LoggingHooks returns lifecycle hooks writing one log line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWorkflowStart: func(ctx context.Context, e *domain.WorkflowEvent) {
			logger.Debug("workflow_start", "workflow", e.Workflow, "viewport", e.Viewport)
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			if e.Err != nil {
				logger.Warn("workflow_end",
					"workflow", e.Workflow,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.Info("workflow_end", "workflow", e.Workflow, "duration", e.Duration)
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.Debug("status_change", "from", e.From, "to", e.To)
		},
	}
}
