package easel

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
	"github.com/aretw0/easel/pkg/ports"
)

// Version is the release of the easel module.
//
//go:embed VERSION
var Version string

type settings struct {
	cfg    editor.Config
	opts   []editor.Option
	logger *slog.Logger
}

// Option configures the editors built by New and Open.
type Option func(*settings)

// WithConfig sets the orchestrator configuration. Zero fields take their defaults.
func WithConfig(cfg editor.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
		s.opts = append(s.opts, editor.WithLogger(logger))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.opts = append(s.opts, editor.WithLifecycleHooks(hooks))
	}
}

func apply(opts []Option) *settings {
	s := &settings{cfg: editor.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New creates an orchestrator driving page. The editor starts Unloaded; call
// Visit or WaitUntilLoaded before any workflow.
func New(page ports.Page, opts ...Option) (*editor.Editor, error) {
	s := apply(opts)
	return editor.New(page, s.cfg, s.opts...)
}

// Open creates a page on browser in the configured viewport, navigates it to
// the editor at url and waits until the editor is usable.
// The page is closed when the editor cannot be opened.
func Open(ctx context.Context, browser ports.Browser, url string, opts ...Option) (*editor.Editor, error) {
	s := apply(opts)
	page, err := browser.NewPage(ctx, ports.PageOptions{Viewport: s.cfg.Viewport})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	ed, err := editor.New(page, s.cfg, s.opts...)
	if err == nil {
		err = ed.Visit(ctx, url)
	}
	if err != nil {
		if cerr := page.Close(context.WithoutCancel(ctx)); cerr != nil && s.logger != nil {
			s.logger.Warn("failed to close page", "err", cerr)
		}
		return nil, err
	}
	return ed, nil
}
