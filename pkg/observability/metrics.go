package observability

import (
	"context"
	"errors"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "easel"

// Metrics holds the Prometheus collectors of the orchestrator and the scenario runner.
type Metrics struct {
	workflows *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	statuses  *prometheus.CounterVec
	steps     *prometheus.CounterVec
	runs      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		workflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "workflows_total",
				Help:      "Total number of editor workflows by outcome",
			},
			[]string{"workflow", "viewport", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Duration of editor workflows",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"workflow"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "workflows_in_flight",
			Help:      "Number of editor workflows currently running",
		}),
		statuses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "status_transitions_total",
				Help:      "Editor status transitions",
			},
			[]string{"from", "to"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scenario_steps_total",
				Help:      "Scenario steps by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scenario_runs_total",
				Help:      "Finished scenario runs by status",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.workflows, m.duration, m.inFlight, m.statuses, m.steps, m.runs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording workflow and status metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWorkflowStart: func(ctx context.Context, e *domain.WorkflowEvent) {
			m.inFlight.Inc()
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			m.inFlight.Dec()
			m.workflows.WithLabelValues(e.Workflow, string(e.Viewport), outcome(e.Err)).Inc()
			m.duration.WithLabelValues(e.Workflow).Observe(e.Duration.Seconds())
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			m.statuses.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
	}
}

// ObserveStep counts a scenario step.
func (m *Metrics) ObserveStep(ctx context.Context, runID string, result domain.StepResult) {
	o := "ok"
	switch {
	case result.Skipped:
		o = "skipped"
	case result.Error != "":
		o = "error"
	}
	m.steps.WithLabelValues(result.Action, o).Inc()
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(ctx context.Context, record *domain.RunRecord) {
	if record == nil || !record.Finished() {
		return
	}
	m.runs.WithLabelValues(string(record.Status)).Inc()
}

// outcome maps a workflow error to a bounded label value.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrSurfaceNotFound):
		return "surface_not_found"
	case errors.Is(err, domain.ErrVerificationMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrModeMismatch):
		return "mode_mismatch"
	case errors.Is(err, domain.ErrDialogUnhandled):
		return "dialog_unhandled"
	case errors.Is(err, domain.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	}
	return "error"
}
