package panel

import (
	"context"
	"time"

	"github.com/aretw0/easel/pkg/ports"
)

// Toolbar is the editor header: inserter toggle, save, publish and preview actions.
type Toolbar struct {
	base
}

// NewToolbar binds the toolbar to a surface.
func NewToolbar(s ports.Surface, timeout time.Duration) *Toolbar {
	return &Toolbar{base: newBase(s, timeout)}
}

// Inserter returns the block inserter panel opened from this toolbar.
func (t *Toolbar) Inserter() *BlockInserter {
	return &BlockInserter{base: t.base}
}

// ClickPublish clicks the primary publish (or schedule, or update) button.
func (t *Toolbar) ClickPublish(ctx context.Context) error {
	return Within(ctx, "click publish", t.timeout, func(ctx context.Context) error {
		return t.surface.Click(ctx, SelectorPublishButton)
	})
}

// SaveDraft clicks "Save draft" and waits for the saved indicator.
func (t *Toolbar) SaveDraft(ctx context.Context) error {
	return Within(ctx, "save draft", t.timeout, func(ctx context.Context) error {
		if err := t.surface.Click(ctx, SelectorSaveDraft); err != nil {
			return err
		}
		return t.surface.WaitVisible(ctx, SelectorSavedState)
	})
}

// OpenPreviewMenu opens the desktop preview device dropdown.
func (t *Toolbar) OpenPreviewMenu(ctx context.Context) error {
	return t.open(ctx, "open preview menu", SelectorPreviewMenu, SelectorPreviewButton)
}

// SelectPreviewDevice picks a device from the open preview dropdown.
func (t *Toolbar) SelectPreviewDevice(ctx context.Context, device string) error {
	return Within(ctx, "select preview device "+device, t.timeout, func(ctx context.Context) error {
		return t.surface.Click(ctx, PreviewDeviceSelector(device))
	})
}

// ClickPreview clicks the preview button without waiting for a menu.
func (t *Toolbar) ClickPreview(ctx context.Context) error {
	return Within(ctx, "click preview", t.timeout, func(ctx context.Context) error {
		return t.surface.Click(ctx, SelectorPreviewButton)
	})
}

// ClosePreview leaves the compact preview. It is a no-op outside preview.
func (t *Toolbar) ClosePreview(ctx context.Context) error {
	return Within(ctx, "close preview", t.timeout, func(ctx context.Context) error {
		open, err := t.isVisible(ctx, SelectorPreviewClose)
		if err != nil || !open {
			return err
		}
		return t.surface.Click(ctx, SelectorPreviewClose)
	})
}

// BlockInserter is the block library panel.
type BlockInserter struct {
	base
}

var _ Toggle = (*BlockInserter)(nil)

// IsOpen reports whether the inserter menu is visible.
func (b *BlockInserter) IsOpen(ctx context.Context) (bool, error) {
	return b.isVisible(ctx, SelectorInserterMenu)
}

// Open opens the inserter.
func (b *BlockInserter) Open(ctx context.Context) error {
	return b.open(ctx, "open block inserter", SelectorInserterMenu, SelectorInserterToggle)
}

// Close closes the inserter through its toggle.
func (b *BlockInserter) Close(ctx context.Context) error {
	return b.close(ctx, "close block inserter", SelectorInserterMenu, SelectorInserterToggle)
}

// Search types a block name into the inserter search field.
func (b *BlockInserter) Search(ctx context.Context, name string) error {
	return Within(ctx, "search block "+name, b.timeout, func(ctx context.Context) error {
		return b.surface.Fill(ctx, SelectorInserterSearch, name)
	})
}

// SelectFirstResult inserts the first block listed by the search.
func (b *BlockInserter) SelectFirstResult(ctx context.Context) error {
	return Within(ctx, "select block result", b.timeout, func(ctx context.Context) error {
		return b.surface.Click(ctx, SelectorInserterResult)
	})
}
