// Package editor orchestrates end-to-end workflows on a block editor page.
//
// An Editor owns one ports.Page for its lifetime. Each workflow resolves the
// editor surface, binds the panel components to it and sequences them,
// confirming the visible effect of every UI action before moving on. Editors
// do not lock: callers must not run two workflows on the same page at once
// (see package session).
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/surface"
)

// Editor drives the block editor of a page.
type Editor struct {
	page     ports.Page
	cfg      Config
	resolver *surface.Resolver
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	mu     sync.Mutex
	status domain.EditorStatus
}

// Option configures the Editor.
type Option func(*Editor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStatus sets the initial status, for pages already showing a loaded editor.
func WithStatus(status domain.EditorStatus) Option {
	return func(e *Editor) {
		e.status = status
	}
}

// New creates an Editor bound to page. Zero Config fields take their defaults.
func New(page ports.Page, cfg Config, opts ...Option) (*Editor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Editor{
		page:   page,
		cfg:    cfg,
		status: domain.StatusUnloaded,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("viewport", string(cfg.Viewport))

	e.resolver = surface.NewResolver(page,
		surface.WithTimeout(cfg.Timeouts.Surface),
		surface.WithLogger(e.logger),
	)
	return e, nil
}

// Config returns the effective configuration.
func (e *Editor) Config() Config {
	return e.cfg
}

// Page returns the session handle the editor drives.
func (e *Editor) Page() ports.Page {
	return e.page
}

// Status returns the current lifecycle status.
func (e *Editor) Status() domain.EditorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Editor) compact() bool {
	return e.cfg.Viewport.IsCompact()
}

// transition moves the editor to a new status and emits the change.
func (e *Editor) transition(ctx context.Context, to domain.EditorStatus) error {
	e.mu.Lock()
	from := e.status
	if err := domain.Transition(from, to); err != nil {
		e.mu.Unlock()
		return err
	}
	e.status = to
	e.mu.Unlock()

	if from != to {
		e.logger.Debug("editor status changed", "from", from, "to", to)
	}
	if e.hooks.OnStatusChange != nil {
		e.hooks.OnStatusChange(ctx, &domain.StatusEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStatusChange},
			From:      from,
			To:        to,
		})
	}
	return nil
}

// requireLoaded rejects workflows on an editor that has not finished loading.
func (e *Editor) requireLoaded() error {
	status := e.Status()
	if status == domain.StatusUnloaded || status == domain.StatusLoading || status.Busy() {
		return &domain.TransitionError{From: status, To: domain.StatusReady}
	}
	return nil
}

// workflow runs fn between start and end hooks.
func (e *Editor) workflow(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if e.hooks.OnWorkflowStart != nil {
		e.hooks.OnWorkflowStart(ctx, &domain.WorkflowEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventWorkflowStart},
			Workflow:  name,
			Viewport:  e.cfg.Viewport,
		})
	}

	err := fn(ctx)

	if err != nil {
		e.logger.Warn("workflow failed", "workflow", name, "error", err)
	} else {
		e.logger.Debug("workflow finished", "workflow", name, "duration", time.Since(start))
	}
	if e.hooks.OnWorkflowEnd != nil {
		e.hooks.OnWorkflowEnd(ctx, &domain.WorkflowEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventWorkflowEnd},
			Workflow:  name,
			Viewport:  e.cfg.Viewport,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// view is the set of panels bound to one resolved surface.
type view struct {
	surface  ports.Surface
	canvas   *panel.Canvas
	toolbar  *panel.Toolbar
	publish  *panel.PublishPanel
	settings *panel.SettingsSidebar
	nav      *panel.NavSidebar
	notices  *panel.Notices
}

// bind resolves the editor surface and binds the panels to it.
func (e *Editor) bind(ctx context.Context) (*view, error) {
	s, err := e.resolver.Resolve(ctx, e.cfg.StrictSurface)
	if err != nil {
		return nil, err
	}
	step := e.cfg.Timeouts.Step
	return &view{
		surface:  s,
		canvas:   panel.NewCanvas(s, step),
		toolbar:  panel.NewToolbar(s, step),
		publish:  panel.NewPublishPanel(s, step),
		settings: panel.NewSettingsSidebar(s, step),
		nav:      panel.NewNavSidebar(s, step),
		notices:  panel.NewNotices(s, step),
	}, nil
}

// confirmSurface resolves the surface again and fails if it changed identity.
func (e *Editor) confirmSurface(ctx context.Context, v *view) error {
	s, err := e.resolver.Resolve(ctx, e.cfg.StrictSurface)
	if err != nil {
		return err
	}
	if s.ID() != v.surface.ID() {
		return &domain.VerificationMismatchError{Op: "resolve surface", Expected: v.surface.ID(), Observed: s.ID()}
	}
	return nil
}

// Surface resolves the editor surface.
func (e *Editor) Surface(ctx context.Context) (ports.Surface, error) {
	return e.resolver.Resolve(ctx, e.cfg.StrictSurface)
}
