package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/session"
	"github.com/google/uuid"
)

// StepObserver is notified after every step of a run, skipped steps included.
type StepObserver func(ctx context.Context, runID string, result domain.StepResult)

// RunObserver is notified once a run has finished and its record is saved.
type RunObserver func(ctx context.Context, record *domain.RunRecord)

// Runner executes scenarios, one browser page and one editor per run.
// Runs sharing an account are serialized through the session manager.
type Runner struct {
	browser  ports.Browser
	sessions *session.Manager
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	observer StepObserver
	finished RunObserver
}

var _ ports.ScenarioRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger runs and editors report to.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLifecycleHooks forwards orchestrator hooks to every editor the runner creates.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithStepObserver registers a callback invoked after each step.
func WithStepObserver(fn StepObserver) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// WithRunObserver registers a callback invoked when a run ends.
func WithRunObserver(fn RunObserver) Option {
	return func(r *Runner) {
		r.finished = fn
	}
}

// NewRunner creates a runner opening pages on browser and recording runs through sessions.
func NewRunner(browser ports.Browser, sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		browser:  browser,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the run store. Reads and writes go through the session leases.
func (r *Runner) Store() ports.RunStore {
	return r.sessions
}

// Validate parses and validates a scenario document.
func (r *Runner) Validate(document []byte) error {
	_, err := Parse(document)
	return err
}

// RunDocument parses document and runs it under runID.
func (r *Runner) RunDocument(ctx context.Context, runID string, document []byte) (*domain.RunRecord, error) {
	sc, err := Parse(document)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, runID, sc)
}

// Run executes sc and returns its record. The record is persisted when the run
// starts, after every step and when it finishes.
// A failed run returns both the record and the failure.
func (r *Runner) Run(ctx context.Context, runID string, sc *Scenario) (*domain.RunRecord, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := r.logger.With("run_id", runID, "scenario", sc.Name)
	record := domain.NewRunRecord(runID, sc.Name)
	record.EditorStatus = domain.StatusUnloaded
	if err := r.sessions.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	logger.Info("run started", "account", sc.Account, "viewport", sc.Viewport, "steps", len(sc.Steps))
	runErr := r.sessions.WithLease(ctx, "account:"+sc.Account, func(ctx context.Context) error {
		return r.execute(ctx, sc, record, logger)
	})

	record.FinishedAt = time.Now().UTC()
	if runErr != nil {
		record.Status = domain.RunFailed
		record.Error = runErr.Error()
		logger.Error("run failed", "err", runErr)
	} else {
		record.Status = domain.RunPassed
		logger.Info("run passed", "duration", record.FinishedAt.Sub(record.StartedAt))
	}

	if err := r.sessions.Save(context.WithoutCancel(ctx), record); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to record run: %w", err))
	}
	if r.finished != nil {
		r.finished(ctx, record.Clone())
	}
	return record, runErr
}

func (r *Runner) execute(ctx context.Context, sc *Scenario, record *domain.RunRecord, logger *slog.Logger) error {
	page, err := r.browser.NewPage(ctx, ports.PageOptions{Viewport: sc.Viewport})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close page", "err", err)
		}
	}()

	ed, err := editor.New(page, sc.Config(),
		editor.WithLogger(logger),
		editor.WithLifecycleHooks(r.hooks),
	)
	if err != nil {
		return err
	}
	if err := ed.Visit(ctx, sc.URL); err != nil {
		record.EditorStatus = ed.Status()
		return fmt.Errorf("failed to open editor: %w", err)
	}
	record.EditorStatus = ed.Status()

	x := &execution{editor: ed, outputs: record.Outputs}
	for i, step := range sc.Steps {
		res, err := r.step(ctx, sc, x, i, step)
		record.Steps = append(record.Steps, res)
		record.EditorStatus = ed.Status()

		if r.observer != nil {
			r.observer(ctx, record.ID, res)
		}
		if serr := r.sessions.Save(ctx, record); serr != nil {
			logger.Warn("failed to record step", "step", i, "err", serr)
		}
		if err != nil {
			return &StepError{Index: i, Step: step.Label(), Action: step.Action, Err: err}
		}
	}
	return nil
}

func (r *Runner) step(ctx context.Context, sc *Scenario, x *execution, i int, step Step) (domain.StepResult, error) {
	start := time.Now()
	res := domain.StepResult{Index: i, Name: step.Name, Action: step.Action}
	fail := func(err error) (domain.StepResult, error) {
		res.Duration = time.Since(start)
		res.Error = err.Error()
		return res, err
	}

	guard := step.guard
	if guard == nil && step.When != "" {
		var err error
		if guard, err = CompileGuard(step.When); err != nil {
			return fail(err)
		}
	}
	if guard != nil {
		ok, err := guard.Eval(Env{
			Viewport: string(sc.Viewport),
			Status:   string(x.editor.Status()),
			Account:  sc.Account,
			Step:     i,
			Outputs:  x.outputs,
		})
		if err != nil {
			return fail(err)
		}
		if !ok {
			r.logger.Debug("step skipped", "step", step.Label(), "when", guard.String())
			res.Skipped = true
			return res, nil
		}
	}

	h, ok := handlers[step.Action]
	if !ok {
		return fail(&ValidationError{Paths: []string{fmt.Sprintf("/steps/%d/action", i)}, Reason: fmt.Sprintf("unknown action %q", step.Action)})
	}
	out, err := h(ctx, x, step.With)
	res.Output = out
	if err != nil {
		return fail(err)
	}
	res.Duration = time.Since(start)
	return res, nil
}
