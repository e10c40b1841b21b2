package editor

import (
	"context"
	"fmt"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
)

// Visit navigates to the editor at url and waits until it is usable.
func (e *Editor) Visit(ctx context.Context, url string) error {
	return e.workflow(ctx, "visit", func(ctx context.Context) error {
		if err := e.transition(ctx, domain.StatusLoading); err != nil {
			return err
		}
		resp, err := panel.WithinValue(ctx, "navigate to editor", e.cfg.Timeouts.Navigation, func(ctx context.Context) (bool, error) {
			resp, err := e.page.Navigate(ctx, url)
			if err != nil {
				return false, err
			}
			return resp == nil || resp.OK(), nil
		})
		if err != nil {
			_ = e.transition(ctx, domain.StatusUnloaded)
			return fmt.Errorf("navigate to editor: %w", err)
		}
		if !resp {
			_ = e.transition(ctx, domain.StatusUnloaded)
			return &domain.VerificationMismatchError{Op: "navigate to editor", Expected: "successful response", Observed: "error status"}
		}
		return e.load(ctx)
	})
}

// WaitUntilLoaded waits for an editor the page is already navigating to.
func (e *Editor) WaitUntilLoaded(ctx context.Context) error {
	return e.workflow(ctx, "wait until loaded", func(ctx context.Context) error {
		if err := e.transition(ctx, domain.StatusLoading); err != nil {
			return err
		}
		return e.load(ctx)
	})
}

// load confirms the editor surface and canvas, then dismisses the welcome guide.
func (e *Editor) load(ctx context.Context) error {
	v, err := e.bind(ctx)
	if err == nil {
		err = v.canvas.WaitReady(ctx)
	}
	if err == nil && !e.cfg.KeepWelcomeGuide {
		var dismissed bool
		dismissed, err = v.canvas.DismissWelcomeGuide(ctx)
		if dismissed {
			e.logger.Debug("welcome guide dismissed")
		}
	}
	if err != nil {
		_ = e.transition(ctx, domain.StatusUnloaded)
		return err
	}
	return e.transition(ctx, domain.StatusReady)
}
