package editor

import (
	"context"
	"slices"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

// EnterTitle types the document title and confirms the editor shows it trimmed.
func (e *Editor) EnterTitle(ctx context.Context, text string) error {
	return e.workflow(ctx, "enter title", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		if err := v.canvas.EnterTitle(ctx, text); err != nil {
			return err
		}
		observed, err := v.canvas.Title(ctx)
		if err != nil {
			return err
		}
		if want := strings.TrimSpace(text); observed != want {
			return &domain.VerificationMismatchError{Op: "enter title", Expected: want, Observed: observed}
		}
		return nil
	})
}

// Title returns the document title.
func (e *Editor) Title(ctx context.Context) (string, error) {
	if err := e.requireLoaded(); err != nil {
		return "", err
	}
	v, err := e.bind(ctx)
	if err != nil {
		return "", err
	}
	return v.canvas.Title(ctx)
}

// EnterText appends one paragraph block per line of text and confirms the
// document now ends with those paragraphs.
func (e *Editor) EnterText(ctx context.Context, text string) error {
	return e.workflow(ctx, "enter text", func(ctx context.Context) error {
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		lines := strings.Split(text, "\n")
		if err := v.canvas.EnterParagraphs(ctx, lines); err != nil {
			return err
		}
		paragraphs, err := v.canvas.Paragraphs(ctx)
		if err != nil {
			return err
		}
		if len(paragraphs) < len(lines) || !slices.Equal(paragraphs[len(paragraphs)-len(lines):], lines) {
			return &domain.VerificationMismatchError{Op: "enter text", Expected: text, Observed: strings.Join(paragraphs, "\n")}
		}
		return nil
	})
}

// Text returns the paragraph blocks joined by newlines.
func (e *Editor) Text(ctx context.Context) (string, error) {
	if err := e.requireLoaded(); err != nil {
		return "", err
	}
	v, err := e.bind(ctx)
	if err != nil {
		return "", err
	}
	paragraphs, err := v.canvas.Paragraphs(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

// AddBlock inserts a block through the inserter and waits for selector to render.
// The compact layout closes the inserter by itself.
func (e *Editor) AddBlock(ctx context.Context, name, selector string) error {
	return e.workflow(ctx, "add block", func(ctx context.Context) error {
		if strings.TrimSpace(name) == "" {
			return &domain.ConfigError{Field: "name", Reason: "block name is required"}
		}
		if strings.TrimSpace(selector) == "" {
			return &domain.ConfigError{Field: "selector", Reason: "block selector is required"}
		}
		if err := e.requireLoaded(); err != nil {
			return err
		}
		v, err := e.bind(ctx)
		if err != nil {
			return err
		}
		inserter := v.toolbar.Inserter()
		if err := v.canvas.ResetSelection(ctx); err != nil {
			return err
		}
		if err := inserter.Open(ctx); err != nil {
			return err
		}
		if err := inserter.Search(ctx, name); err != nil {
			return err
		}
		if err := inserter.SelectFirstResult(ctx); err != nil {
			return err
		}
		if err := v.canvas.WaitForBlock(ctx, selector); err != nil {
			return err
		}
		if e.compact() {
			return nil
		}
		return inserter.Close(ctx)
	})
}
