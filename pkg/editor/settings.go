package editor

import (
	"context"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/ports"
)

// openSection opens the settings sidebar on the document tab and expands a section.
func (e *Editor) openSection(ctx context.Context, section string) (*view, error) {
	v, err := e.bind(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.settings.Open(ctx); err != nil {
		return nil, err
	}
	kind, err := v.settings.SelectDocumentTab(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("document tab selected", "kind", kind)
	if err := v.settings.ExpandSection(ctx, section); err != nil {
		return nil, err
	}
	return v, nil
}

// waitDialog waits for an armed dialog listener to fire within the dialog bound.
func (e *Editor) waitDialog(ctx context.Context, op string, wait ports.DialogWaiter) error {
	bound := e.cfg.Timeouts.Dialog
	dctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	if err := wait(dctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.DialogUnhandledError{Op: op, Bound: bound}
	}
	return nil
}

// SetVisibility changes who can see the document.
// Private visibility asks for confirmation, which is accepted.
func (e *Editor) SetVisibility(ctx context.Context, level domain.Visibility, opts domain.VisibilityOptions) error {
	return e.workflow(ctx, "set visibility", func(ctx context.Context) error {
		if err := domain.ValidateVisibility(level, opts); err != nil {
			return err
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.openSection(ctx, panel.SectionSummary)
		if err != nil {
			return err
		}

		var accepted ports.DialogWaiter
		if level == domain.VisibilityPrivate {
			var disarm func()
			accepted, disarm = e.page.OnceDialog(true)
			defer disarm()
		}
		if err := v.settings.ChooseVisibility(ctx, level, opts); err != nil {
			return err
		}
		if accepted != nil {
			if err := e.waitDialog(ctx, "set visibility", accepted); err != nil {
				return err
			}
		}
		return v.settings.VerifyVisibility(ctx, level)
	})
}

// SelectCategory ticks a category of the document.
func (e *Editor) SelectCategory(ctx context.Context, name string) error {
	return e.workflow(ctx, "select category", func(ctx context.Context) error {
		if strings.TrimSpace(name) == "" {
			return &domain.ConfigError{Field: "name", Reason: "category name is required"}
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.openSection(ctx, panel.SectionCategories)
		if err != nil {
			return err
		}
		return v.settings.SelectCategory(ctx, name)
	})
}

// AddTag adds a tag to the document.
func (e *Editor) AddTag(ctx context.Context, name string) error {
	return e.workflow(ctx, "add tag", func(ctx context.Context) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return &domain.ConfigError{Field: "name", Reason: "tag name is required"}
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.openSection(ctx, panel.SectionTags)
		if err != nil {
			return err
		}
		return v.settings.AddTag(ctx, name)
	})
}

// SetSlug replaces the URL slug of the document.
func (e *Editor) SetSlug(ctx context.Context, slug string) error {
	return e.workflow(ctx, "set slug", func(ctx context.Context) error {
		slug = strings.TrimSpace(slug)
		if slug == "" {
			return &domain.ConfigError{Field: "slug", Reason: "slug is required"}
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.openSection(ctx, panel.SectionPermalink)
		if err != nil {
			return err
		}
		return v.settings.SetSlug(ctx, slug)
	})
}
