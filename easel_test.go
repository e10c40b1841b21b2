package easel_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+$`, strings.TrimSpace(easel.Version))
}

func TestNew(t *testing.T) {
	page := memory.NewEditorPage()
	ed, err := easel.New(page.Page)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnloaded, ed.Status())
	assert.Equal(t, editor.DefaultConfig().Timeouts, ed.Config().Timeouts)

	_, err = easel.New(page.Page, easel.WithConfig(editor.Config{Viewport: "watch"}))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	fast := editor.Config{
		Viewport: domain.ViewportMobile,
		Timeouts: editor.Timeouts{Surface: 20 * time.Millisecond, Step: time.Second, Navigation: time.Second},
	}

	t.Run("Loads Editor In Viewport", func(t *testing.T) {
		var statuses []domain.EditorStatus
		hooks := domain.LifecycleHooks{
			OnStatusChange: func(_ context.Context, e *domain.StatusEvent) { statuses = append(statuses, e.To) },
		}
		browser := memory.EditorBrowser()
		ed, err := easel.Open(ctx, browser, memory.EditorURL, easel.WithConfig(fast), easel.WithLifecycleHooks(hooks))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReady, ed.Status())
		assert.Equal(t, domain.ViewportMobile, ed.Config().Viewport)
		assert.Equal(t, []domain.EditorStatus{domain.StatusLoading, domain.StatusReady}, statuses)

		_, err = ed.PreviewAsMobile(ctx)
		assert.NoError(t, err, "the page was opened in the mobile viewport")
	})

	t.Run("Closes Page On Failure", func(t *testing.T) {
		strict := fast
		strict.StrictSurface = true
		browser := memory.EditorBrowser()

		_, err := easel.Open(ctx, browser, "https://example.com/not-an-editor", easel.WithConfig(strict))
		assert.ErrorIs(t, err, domain.ErrSurfaceNotFound)
		require.Len(t, browser.Pages(), 1)
		assert.True(t, browser.Pages()[0].Closed())
	})
}
