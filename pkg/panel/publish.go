package panel

import (
	"context"
	"time"

	"github.com/aretw0/easel/pkg/ports"
)

// PublishPanel is the pre-publish checklist and post-publish summary panel.
type PublishPanel struct {
	base
}

var _ Closer = (*PublishPanel)(nil)

// NewPublishPanel binds the publish panel to a surface.
func NewPublishPanel(s ports.Surface, timeout time.Duration) *PublishPanel {
	return &PublishPanel{base: newBase(s, timeout)}
}

// IsOpen reports whether the panel is visible.
func (p *PublishPanel) IsOpen(ctx context.Context) (bool, error) {
	return p.isVisible(ctx, SelectorPublishPanel)
}

// WaitOpen waits up to bound for the panel to open and reports whether it did.
// Not opening within bound is not an error.
func (p *PublishPanel) WaitOpen(ctx context.Context, bound time.Duration) (bool, error) {
	wctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	err := p.surface.WaitVisible(wctx, SelectorPublishPanel)
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if wctx.Err() != nil {
		return false, nil
	}
	return false, err
}

// NeedsConfirmation reports whether the open panel is the pre-publish checklist.
func (p *PublishPanel) NeedsConfirmation(ctx context.Context) (bool, error) {
	return p.isVisible(ctx, SelectorPublishPanelConfirm)
}

// Confirm clicks the publish button inside the panel.
func (p *PublishPanel) Confirm(ctx context.Context) error {
	return Within(ctx, "confirm publish", p.timeout, func(ctx context.Context) error {
		return p.surface.Click(ctx, SelectorPublishPanelConfirm)
	})
}

// PublishedURL waits up to bound for the post-publish address readout.
// A zero bound leaves the wait to ctx.
func (p *PublishPanel) PublishedURL(ctx context.Context, bound time.Duration) (string, error) {
	return WithinValue(ctx, "read published url from panel", bound, func(ctx context.Context) (string, error) {
		return p.surface.Attribute(ctx, SelectorPublishPanelAddress, "value")
	})
}

// Close closes the panel.
func (p *PublishPanel) Close(ctx context.Context) error {
	return p.close(ctx, "close publish panel", SelectorPublishPanel, SelectorPublishPanelClose)
}
