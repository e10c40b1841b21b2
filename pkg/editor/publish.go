package editor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/race"
)

// Publish publishes the document and returns its public URL.
//
// The URL is taken from whichever of the snackbar link and the post-publish
// panel shows a well-formed URL first. When neither does within the notice
// bound, Publish fails with a TimeoutError.
func (e *Editor) Publish(ctx context.Context, opts domain.PublishOptions) (*url.URL, error) {
	var published *url.URL
	err := e.workflow(ctx, "publish", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		if err := e.transition(ctx, domain.StatusPublishing); err != nil {
			return err
		}
		u, err := e.publish(ctx)
		if err != nil {
			_ = e.transition(ctx, domain.StatusReady)
			return err
		}
		published = u
		return e.transition(ctx, domain.StatusPublished)
	})
	if err != nil {
		return nil, err
	}
	if opts.Visit {
		return published, e.VisitPublished(ctx, published)
	}
	return published, nil
}

func (e *Editor) publish(ctx context.Context) (*url.URL, error) {
	v, err := e.bind(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.toolbar.ClickPublish(ctx); err != nil {
		return nil, err
	}
	if err := e.confirmPublishPanel(ctx, v); err != nil {
		return nil, err
	}

	// Both readers share the notice bound.
	res, err := panel.WithinValue(ctx, "read published url", e.cfg.Timeouts.Notice, func(ctx context.Context) (race.Result[*url.URL], error) {
		return race.First(ctx,
			race.Candidate[*url.URL]{Name: "toast", Run: func(ctx context.Context) (*url.URL, error) {
				raw, err := v.notices.ToastURL(ctx, 0)
				if err != nil {
					return nil, err
				}
				return parsePublishedURL(raw)
			}},
			race.Candidate[*url.URL]{Name: "panel", Run: func(ctx context.Context) (*url.URL, error) {
				raw, err := v.publish.PublishedURL(ctx, 0)
				if err != nil {
					return nil, err
				}
				return parsePublishedURL(raw)
			}},
		)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("document published", "url", res.Value.String(), "signal", res.Winner)

	if err := e.confirmSurface(ctx, v); err != nil {
		return nil, err
	}
	if err := v.publish.Close(ctx); err != nil {
		return nil, err
	}
	return res.Value, nil
}

// confirmPublishPanel drives the pre-publish checklist when it opens.
func (e *Editor) confirmPublishPanel(ctx context.Context, v *view) error {
	open, err := v.publish.WaitOpen(ctx, e.cfg.Timeouts.PanelSettle)
	if err != nil || !open {
		return err
	}
	needed, err := v.publish.NeedsConfirmation(ctx)
	if err != nil || !needed {
		return err
	}
	return v.publish.Confirm(ctx)
}

// parsePublishedURL accepts absolute http(s) URLs only.
func parsePublishedURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("malformed published url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("malformed published url %q", raw)
	}
	return u, nil
}

// VisitPublished opens the published document and reloads until it renders,
// within the configured retry bound. The editor is left unloaded.
func (e *Editor) VisitPublished(ctx context.Context, target *url.URL) error {
	return e.workflow(ctx, "visit published", func(ctx context.Context) error {
		if target == nil {
			return &domain.ConfigError{Field: "url", Reason: "published url is required"}
		}
		// Leaving the editor may raise a beforeunload confirmation.
		_, disarm := e.page.OnceDialog(true)
		defer disarm()

		retry := e.cfg.PublishRetry
		observed := ""
		for attempt := 0; attempt < retry.Attempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retry.Backoff(attempt - 1)):
				}
			}
			ok, status, err := e.loadPublished(ctx, target, attempt == 0)
			if err != nil {
				return err
			}
			if ok {
				return e.transition(ctx, domain.StatusUnloaded)
			}
			observed = status
			e.logger.Info("published document not visible yet", "url", target.String(), "attempt", attempt+1, "observed", status)
		}
		_ = e.transition(ctx, domain.StatusUnloaded)
		return &domain.VerificationMismatchError{Op: "visit published", Expected: "published document", Observed: observed}
	})
}

// loadPublished navigates (first attempt) or reloads and reports whether the document rendered.
func (e *Editor) loadPublished(ctx context.Context, target *url.URL, first bool) (bool, string, error) {
	type outcome struct {
		ok     bool
		status string
	}
	out, err := panel.WithinValue(ctx, "visit published", e.cfg.Timeouts.Navigation, func(ctx context.Context) (outcome, error) {
		var (
			resp *ports.Response
			err  error
		)
		if first {
			resp, err = e.page.Navigate(ctx, target.String())
		} else {
			resp, err = e.page.Reload(ctx)
		}
		if err != nil {
			return outcome{}, err
		}
		if resp != nil && !resp.OK() {
			return outcome{status: fmt.Sprintf("status %d", resp.Status)}, nil
		}
		missing, err := e.page.Document().Count(ctx, panel.SelectorNotFound)
		if err != nil {
			return outcome{}, err
		}
		if missing > 0 {
			return outcome{status: "not found page"}, nil
		}
		return outcome{ok: true}, nil
	})
	return out.ok, out.status, err
}

// Schedule sets a future publish date and schedules the document.
func (e *Editor) Schedule(ctx context.Context, at time.Time) error {
	return e.workflow(ctx, "schedule", func(ctx context.Context) error {
		if err := domain.ValidateSchedule(at); err != nil {
			return err
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		if err := e.transition(ctx, domain.StatusScheduling); err != nil {
			return err
		}
		if err := e.schedule(ctx, at); err != nil {
			_ = e.transition(ctx, domain.StatusReady)
			return err
		}
		return e.transition(ctx, domain.StatusScheduled)
	})
}

func (e *Editor) schedule(ctx context.Context, at time.Time) error {
	v, err := e.openSection(ctx, panel.SectionSummary)
	if err != nil {
		return err
	}
	if err := v.settings.SetSchedule(ctx, at); err != nil {
		return err
	}
	if err := v.toolbar.ClickPublish(ctx); err != nil {
		return err
	}
	if err := e.confirmPublishPanel(ctx, v); err != nil {
		return err
	}
	if err := v.notices.WaitFor(ctx, "scheduled", e.cfg.Timeouts.Notice); err != nil {
		return err
	}
	return e.confirmSurface(ctx, v)
}

// Unpublish reverts a published or scheduled document to draft.
func (e *Editor) Unpublish(ctx context.Context) error {
	return e.workflow(ctx, "unpublish", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		if err := domain.Transition(e.Status(), domain.StatusDraft); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}

		accepted, disarm := e.page.OnceDialog(true)
		defer disarm()
		if err := v.settings.SwitchToDraft(ctx); err != nil {
			return err
		}
		if err := e.waitDialog(ctx, "switch to draft", accepted); err != nil {
			return err
		}
		if err := v.notices.WaitFor(ctx, "reverted to draft", e.cfg.Timeouts.Notice); err != nil {
			return err
		}
		return e.transition(ctx, domain.StatusDraft)
	})
}

// SaveDraft saves the document as a draft.
func (e *Editor) SaveDraft(ctx context.Context) error {
	return e.workflow(ctx, "save draft", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		if err := domain.Transition(e.Status(), domain.StatusDraft); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if err := v.toolbar.SaveDraft(ctx); err != nil {
			return err
		}
		return e.transition(ctx, domain.StatusDraft)
	})
}
