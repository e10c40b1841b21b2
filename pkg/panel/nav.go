package panel

import (
	"context"
	"time"

	"github.com/aretw0/easel/pkg/ports"
)

// NavSidebar is the site navigation sidebar used to leave the editor.
type NavSidebar struct {
	base
}

var _ Toggle = (*NavSidebar)(nil)

// NewNavSidebar binds the navigation sidebar to a surface.
func NewNavSidebar(s ports.Surface, timeout time.Duration) *NavSidebar {
	return &NavSidebar{base: newBase(s, timeout)}
}

// IsOpen reports whether the sidebar is visible.
func (n *NavSidebar) IsOpen(ctx context.Context) (bool, error) {
	return n.isVisible(ctx, SelectorNavSidebar)
}

// Open opens the sidebar.
func (n *NavSidebar) Open(ctx context.Context) error {
	return n.open(ctx, "open navigation sidebar", SelectorNavSidebar, SelectorNavToggle)
}

// Close dismisses the sidebar.
func (n *NavSidebar) Close(ctx context.Context) error {
	return n.close(ctx, "close navigation sidebar", SelectorNavSidebar, SelectorNavDismiss)
}

// ClickExit clicks the link leaving the editor. The compact layout uses a different link.
func (n *NavSidebar) ClickExit(ctx context.Context, compact bool) error {
	selector := SelectorNavExit
	if compact {
		selector = SelectorNavExitCompact
	}
	return Within(ctx, "click exit", n.timeout, func(ctx context.Context) error {
		return n.surface.Click(ctx, selector)
	})
}
