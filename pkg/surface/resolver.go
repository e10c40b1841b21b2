// Package surface resolves the document that hosts the editor UI.
package surface

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

const (
	// DefaultFrameSelector locates the iframe the editor is embedded in.
	DefaultFrameSelector = "iframe.is-loaded"

	// DefaultTimeout tolerates slow editor asset loading.
	DefaultTimeout = 105 * time.Second
)

// DefaultAdminPattern matches URLs where the editor runs in the top-level document.
var DefaultAdminPattern = regexp.MustCompile(`/wp-admin/`)

// Resolver locates the editor surface of a page.
type Resolver struct {
	page          ports.Page
	frameSelector string
	adminPattern  *regexp.Regexp
	timeout       time.Duration
	logger        *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithFrameSelector overrides the selector of the embedding iframe.
func WithFrameSelector(selector string) Option {
	return func(r *Resolver) {
		r.frameSelector = selector
	}
}

// WithAdminPattern overrides the pattern of URLs served without an iframe.
func WithAdminPattern(pattern *regexp.Regexp) Option {
	return func(r *Resolver) {
		r.adminPattern = pattern
	}
}

// WithTimeout bounds the wait for the embedded surface.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithLogger configures the logger receiving degraded-resolution notices.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver bound to a page.
func NewResolver(page ports.Page, opts ...Option) *Resolver {
	r := &Resolver{
		page:          page,
		frameSelector: DefaultFrameSelector,
		adminPattern:  DefaultAdminPattern,
		timeout:       DefaultTimeout,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the surface hosting the editor.
//
// Outside strict mode an administrative URL short-circuits to the top-level
// document, and a missing iframe degrades to the top-level document with a
// logged notice. In strict mode a missing iframe is a SurfaceNotFoundError.
// Resolve only observes the page and may be called any number of times.
func (r *Resolver) Resolve(ctx context.Context, strict bool) (ports.Surface, error) {
	if !strict {
		current, err := r.page.URL(ctx)
		if err != nil {
			return nil, err
		}
		if r.adminPattern != nil && r.adminPattern.MatchString(current) {
			return r.page.Document(), nil
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	frame, err := r.page.Frame(waitCtx, r.frameSelector)
	if err == nil {
		return frame, nil
	}
	// A cancelled caller is not a missing surface.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	notFound := &domain.SurfaceNotFoundError{
		Selector: r.frameSelector,
		Waited:   time.Since(start).Round(time.Millisecond),
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		notFound.Cause = err
	}
	if strict {
		return nil, notFound
	}

	r.logger.Warn("editor frame not found, falling back to top-level document",
		"selector", r.frameSelector,
		"waited", notFound.Waited,
	)
	return r.page.Document(), nil
}

// Timeout returns the configured bound of the frame wait.
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}
