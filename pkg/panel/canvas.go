package panel

import (
	"context"
	"time"

	"github.com/aretw0/easel/pkg/ports"
)

// dismissWelcomeGuideScript turns the welcome guide feature off through the editor data store.
// It is the only script the orchestrator evaluates in the editor.
const dismissWelcomeGuideScript = `(() => {
	const data = window.wp && window.wp.data;
	if (!data) { return false; }
	const editPost = data.select('core/edit-post');
	if (editPost && editPost.isFeatureActive('welcomeGuide')) {
		data.dispatch('core/edit-post').toggleFeature('welcomeGuide');
		return true;
	}
	return false;
})()`

// Canvas is the block editing area: title, blocks and block selection.
type Canvas struct {
	base
}

// NewCanvas binds the canvas to a surface.
func NewCanvas(s ports.Surface, timeout time.Duration) *Canvas {
	return &Canvas{base: newBase(s, timeout)}
}

// WaitReady blocks until the title field is visible.
func (c *Canvas) WaitReady(ctx context.Context) error {
	return Within(ctx, "wait for editor canvas", c.timeout, func(ctx context.Context) error {
		return c.surface.WaitVisible(ctx, SelectorTitle)
	})
}

// DismissWelcomeGuide disables the onboarding overlay and waits for it to disappear.
// It reports whether the guide was active.
func (c *Canvas) DismissWelcomeGuide(ctx context.Context) (bool, error) {
	return WithinValue(ctx, "dismiss welcome guide", c.timeout, func(ctx context.Context) (bool, error) {
		var dismissed bool
		if err := c.surface.Evaluate(ctx, dismissWelcomeGuideScript, &dismissed); err != nil {
			return false, err
		}
		if err := c.surface.WaitHidden(ctx, SelectorWelcomeGuide); err != nil {
			return dismissed, err
		}
		return dismissed, nil
	})
}

// ResetSelection moves focus to the title so that no block stays selected.
func (c *Canvas) ResetSelection(ctx context.Context) error {
	return Within(ctx, "reset block selection", c.timeout, func(ctx context.Context) error {
		return c.surface.Click(ctx, SelectorTitle)
	})
}

// EnterTitle replaces the document title.
func (c *Canvas) EnterTitle(ctx context.Context, text string) error {
	return Within(ctx, "enter title", c.timeout, func(ctx context.Context) error {
		return c.surface.Fill(ctx, SelectorTitle, text)
	})
}

// Title reads the document title.
func (c *Canvas) Title(ctx context.Context) (string, error) {
	return WithinValue(ctx, "read title", c.timeout, func(ctx context.Context) (string, error) {
		return c.surface.Text(ctx, SelectorTitle)
	})
}

// EnterParagraphs appends one paragraph block per line.
func (c *Canvas) EnterParagraphs(ctx context.Context, lines []string) error {
	return Within(ctx, "enter text", c.timeout, func(ctx context.Context) error {
		if err := c.surface.Click(ctx, SelectorAppender); err != nil {
			return err
		}
		for i, line := range lines {
			if err := c.surface.Fill(ctx, SelectorParagraphActive, line); err != nil {
				return err
			}
			if i < len(lines)-1 {
				if err := c.surface.Press(ctx, "Enter"); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Paragraphs returns the text of every paragraph block in document order.
func (c *Canvas) Paragraphs(ctx context.Context) ([]string, error) {
	return WithinValue(ctx, "read text", c.timeout, func(ctx context.Context) ([]string, error) {
		return c.surface.TextAll(ctx, SelectorParagraph)
	})
}

// WaitForBlock blocks until a block matching selector is visible.
func (c *Canvas) WaitForBlock(ctx context.Context, selector string) error {
	return Within(ctx, "wait for block "+selector, c.timeout, func(ctx context.Context) error {
		return c.surface.WaitVisible(ctx, selector)
	})
}
