package editor

import (
	"context"
	"errors"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/race"
)

// ExitEditor leaves the editor through the navigation sidebar and returns the
// URL it landed on. Any of the configured exit patterns is accepted.
func (e *Editor) ExitEditor(ctx context.Context) (string, error) {
	var landed string
	err := e.workflow(ctx, "exit editor", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if err := v.nav.Open(ctx); err != nil {
			return err
		}

		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		type arrival struct {
			url string
			err error
		}
		arrived := make(chan arrival, 1)
		go func() {
			url, err := panel.WithinValue(wctx, "wait for exit destination", e.cfg.Timeouts.Navigation, func(ctx context.Context) (string, error) {
				res, err := race.First(ctx, e.exitCandidates()...)
				return res.Value, err
			})
			arrived <- arrival{url: url, err: err}
		}()

		if err := v.nav.ClickExit(ctx, e.compact()); err != nil {
			return err
		}
		a := <-arrived
		if a.err != nil {
			return a.err
		}
		landed = a.url
		e.logger.Info("left editor", "url", landed)
		return e.transition(ctx, domain.StatusUnloaded)
	})
	return landed, err
}

func (e *Editor) exitCandidates() []race.Candidate[string] {
	candidates := make([]race.Candidate[string], 0, len(e.cfg.ExitPatterns))
	for _, pattern := range e.cfg.ExitPatterns {
		candidates = append(candidates, race.Candidate[string]{
			Name: pattern.String(),
			Run: func(ctx context.Context) (string, error) {
				return e.page.WaitForURL(ctx, pattern)
			},
		})
	}
	return candidates
}

// PreviewAsMobile opens the compact preview and returns its surface.
// It fails with a ModeMismatchError outside the mobile viewport, before any click.
func (e *Editor) PreviewAsMobile(ctx context.Context) (ports.Surface, error) {
	var preview ports.Surface
	err := e.workflow(ctx, "preview as mobile", func(ctx context.Context) error {
		if !e.compact() {
			return &domain.ModeMismatchError{Op: "preview as mobile", Required: domain.ViewportMobile, Actual: e.cfg.Viewport}
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if err := v.toolbar.ClickPreview(ctx); err != nil {
			return err
		}
		preview, err = panel.WithinValue(ctx, "open preview", e.cfg.Timeouts.Step, func(ctx context.Context) (ports.Surface, error) {
			return e.page.Frame(ctx, panel.SelectorPreviewFrame)
		})
		return err
	})
	return preview, err
}

// PreviewAsDesktop switches the desktop preview to target.
// It fails with a ModeMismatchError in the mobile viewport, before any click.
func (e *Editor) PreviewAsDesktop(ctx context.Context, target domain.PreviewTarget) error {
	return e.workflow(ctx, "preview as desktop", func(ctx context.Context) error {
		if e.compact() {
			return &domain.ModeMismatchError{Op: "preview as desktop", Required: domain.ViewportDesktop, Actual: e.cfg.Viewport}
		}
		if err := target.Validate(); err != nil {
			return err
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if err := v.toolbar.OpenPreviewMenu(ctx); err != nil {
			return err
		}
		return v.toolbar.SelectPreviewDevice(ctx, string(target))
	})
}

// ClosePreview leaves preview mode: the compact preview is closed and the
// desktop preview returns to the Desktop device.
func (e *Editor) ClosePreview(ctx context.Context) error {
	return e.workflow(ctx, "close preview", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if e.compact() {
			err = v.toolbar.ClosePreview(ctx)
		} else {
			err = v.toolbar.OpenPreviewMenu(ctx)
			if err == nil {
				err = v.toolbar.SelectPreviewDevice(ctx, string(domain.PreviewDesktop))
			}
		}
		if err != nil {
			return err
		}
		return e.transition(ctx, domain.StatusReady)
	})
}

// CloseAllPanels closes the settings sidebar, block inserter, navigation
// sidebar and publish panel. Every close runs even when another fails; the
// returned error joins the failures. The editor re-enters Ready either way.
func (e *Editor) CloseAllPanels(ctx context.Context) error {
	return e.workflow(ctx, "close all panels", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		closeErr := race.All(ctx,
			race.Task{Name: "settings", Run: v.settings.Close},
			race.Task{Name: "block inserter", Run: v.toolbar.Inserter().Close},
			race.Task{Name: "navigation sidebar", Run: v.nav.Close},
			race.Task{Name: "publish panel", Run: v.publish.Close},
		)
		if closeErr != nil {
			e.logger.Warn("some panels failed to close", "error", closeErr)
		}
		return errors.Join(closeErr, e.transition(ctx, domain.StatusReady))
	})
}

