// Package panel wraps the regions of the block editor UI.
//
// Each panel is bound to a resolved surface and exposes intention-revealing
// operations instead of raw selectors. Close operations are no-ops on closed
// panels and Open operations are idempotent.
package panel

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// DefaultTimeout bounds a single panel operation.
const DefaultTimeout = 15 * time.Second

// Opener opens a panel. Opening an open panel leaves it unchanged.
type Opener interface {
	Open(ctx context.Context) error
}

// Closer closes a panel. Closing a closed panel is a no-op.
type Closer interface {
	Close(ctx context.Context) error
}

// Toggle is a panel with an observable open state.
type Toggle interface {
	Opener
	Closer
	IsOpen(ctx context.Context) (bool, error)
}

// Within runs fn under a bound and reports an exceeded bound as a TimeoutError naming op.
// A bound of zero leaves the context untouched.
func Within(ctx context.Context, op string, bound time.Duration, fn func(ctx context.Context) error) error {
	if bound <= 0 {
		return fn(ctx)
	}
	wctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	err := fn(wctx)
	if err == nil || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &domain.TimeoutError{Op: op, Bound: bound, Cause: err}
	}
	return err
}

// WithinValue is Within for operations producing a value.
func WithinValue[T any](ctx context.Context, op string, bound time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Within(ctx, op, bound, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// base holds what every panel shares.
type base struct {
	surface ports.Surface
	timeout time.Duration
}

func newBase(s ports.Surface, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{surface: s, timeout: timeout}
}

func (b base) isVisible(ctx context.Context, selector string) (bool, error) {
	n, err := b.surface.Count(ctx, selector)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// open clicks toggle unless container is already visible, then waits for it.
func (b base) open(ctx context.Context, op, container, toggle string) error {
	return Within(ctx, op, b.timeout, func(ctx context.Context) error {
		open, err := b.isVisible(ctx, container)
		if err != nil || open {
			return err
		}
		if err := b.surface.Click(ctx, toggle); err != nil {
			return err
		}
		return b.surface.WaitVisible(ctx, container)
	})
}

// close clicks closer if container is visible, then waits for it to disappear.
func (b base) close(ctx context.Context, op, container, closer string) error {
	return Within(ctx, op, b.timeout, func(ctx context.Context) error {
		open, err := b.isVisible(ctx, container)
		if err != nil || !open {
			return err
		}
		if err := b.surface.Click(ctx, closer); err != nil {
			return err
		}
		return b.surface.WaitHidden(ctx, container)
	})
}
