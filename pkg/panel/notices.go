package panel

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/ports"
)

// noticePollInterval is how often the snackbar list is re-read.
var noticePollInterval = 50 * time.Millisecond

// Notices reads the transient snackbar notifications.
type Notices struct {
	base
}

// NewNotices binds the notices reader to a surface.
func NewNotices(s ports.Surface, timeout time.Duration) *Notices {
	return &Notices{base: newBase(s, timeout)}
}

// WaitFor blocks until a notice containing text is shown, up to bound.
func (n *Notices) WaitFor(ctx context.Context, text string, bound time.Duration) error {
	return Within(ctx, "wait for notice "+strings.TrimSpace(text), bound, func(ctx context.Context) error {
		ticker := time.NewTicker(noticePollInterval)
		defer ticker.Stop()
		for {
			notices, err := n.surface.TextAll(ctx, SelectorSnackbar)
			if err != nil {
				return err
			}
			for _, notice := range notices {
				if strings.Contains(strings.ToLower(notice), strings.ToLower(text)) {
					return nil
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
}

// ToastURL waits up to bound for the link of the snackbar (e.g. "View Post")
// and returns its target. A zero bound leaves the wait to ctx.
func (n *Notices) ToastURL(ctx context.Context, bound time.Duration) (string, error) {
	return WithinValue(ctx, "read published url from toast", bound, func(ctx context.Context) (string, error) {
		return n.surface.Attribute(ctx, SelectorSnackbarLink, "href")
	})
}
