package editor_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(viewport domain.Viewport) editor.Config {
	return editor.Config{
		Viewport: viewport,
		Timeouts: editor.Timeouts{
			Surface:     time.Second,
			Step:        time.Second,
			PanelSettle: 20 * time.Millisecond,
			Notice:      time.Second,
			Dialog:      100 * time.Millisecond,
			Navigation:  time.Second,
		},
		PublishRetry: editor.Retry{Attempts: 3, Delay: time.Millisecond},
	}
}

// openEditor loads a scripted editor and returns the orchestrator driving it.
func openEditor(t *testing.T, cfg editor.Config, opts ...memory.EditorOption) (*editor.Editor, *memory.EditorPage) {
	t.Helper()
	page := memory.NewEditorPage(append([]memory.EditorOption{memory.WithViewport(cfg.Viewport)}, opts...)...)
	ed, err := editor.New(page, cfg)
	require.NoError(t, err)
	require.NoError(t, ed.Visit(context.Background(), page.Address()))
	require.Equal(t, domain.StatusReady, ed.Status())
	return ed, page
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := editor.New(memory.NewPage(), editor.Config{Viewport: "tablet"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestVisit(t *testing.T) {
	ctx := context.Background()

	t.Run("Framed", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithWelcomeGuide())
		s, err := ed.Surface(ctx)
		require.NoError(t, err)
		assert.Equal(t, memory.FrameID(memory.EditorFrameSelector), s.ID())

		n, err := page.Editor().Count(ctx, panel.SelectorWelcomeGuide)
		require.NoError(t, err)
		assert.Zero(t, n, "welcome guide is dismissed on load")
	})

	t.Run("Administrative URL Uses Document", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithUnframed())
		s, err := ed.Surface(ctx)
		require.NoError(t, err)
		assert.Equal(t, memory.DocumentID, s.ID())
	})

	t.Run("Strict Surface Not Found", func(t *testing.T) {
		cfg := fastConfig(domain.ViewportDesktop)
		cfg.StrictSurface = true
		cfg.Timeouts.Surface = 30 * time.Millisecond
		page := memory.NewEditorPage(memory.WithUnframed())
		ed, err := editor.New(page, cfg)
		require.NoError(t, err)

		err = ed.Visit(ctx, page.Address())
		assert.ErrorIs(t, err, domain.ErrSurfaceNotFound)
		assert.Equal(t, domain.StatusUnloaded, ed.Status())
	})
}

func TestWorkflows_RequireLoadedEditor(t *testing.T) {
	ed, err := editor.New(memory.NewEditorPage(), fastConfig(domain.ViewportDesktop))
	require.NoError(t, err)

	err = ed.EnterTitle(context.Background(), "Hello")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEnterTitle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Plain", input: "Hello World", want: "Hello World"},
		{name: "Trimmed", input: "  Hello  ", want: "Hello"},
		{name: "Empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
			require.NoError(t, ed.EnterTitle(ctx, tt.input))

			got, err := ed.Title(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Mismatch", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop),
			memory.WithTitleTransform(func(s string) string { return s + "!" }),
		)
		err := ed.EnterTitle(ctx, "Hello")

		var mismatch *domain.VerificationMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "enter title", mismatch.Op)
		assert.Equal(t, "Hello", mismatch.Expected)
		assert.Equal(t, "Hello!", mismatch.Observed)
	})
}

func TestEnterText(t *testing.T) {
	ctx := context.Background()

	t.Run("Round Trip", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		text := "First paragraph\nSecond paragraph\nThird"
		require.NoError(t, ed.EnterText(ctx, text))

		first, err := ed.Text(ctx)
		require.NoError(t, err)
		second, err := ed.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, text, first)
		assert.Equal(t, first, second)
	})

	t.Run("Appends", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.EnterText(ctx, "one"))
		require.NoError(t, ed.EnterText(ctx, "two\nthree"))

		got, err := ed.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo\nthree", got)
	})

	t.Run("Mismatch Is Fatal", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithTextTransform(strings.ToUpper))
		err := ed.EnterText(ctx, "quiet")
		assert.ErrorIs(t, err, domain.ErrVerificationMismatch)
	})
}

func TestAddBlock(t *testing.T) {
	ctx := context.Background()
	quote := memory.BlockSelector("Quote")

	t.Run("Desktop Closes Inserter", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.AddBlock(ctx, "Quote", quote))

		assert.Equal(t, 2, page.Editor().Clicked(panel.SelectorInserterToggle), "open and close")
		n, err := page.Editor().Count(ctx, quote)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Compact Never Closes Inserter", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportMobile))
		require.NoError(t, ed.AddBlock(ctx, "Quote", quote))

		assert.Equal(t, 1, page.Editor().Clicked(panel.SelectorInserterToggle), "open only")
	})

	t.Run("Requires Selector", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		err := ed.AddBlock(ctx, "Quote", " ")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	panelURL := "https://example.wordpress.com/?p=42"

	tests := []struct {
		name   string
		opts   []memory.EditorOption
		want   string
		winner string
	}{
		{
			name: "Toast Only",
			opts: []memory.EditorOption{memory.WithPublishSignals(memory.PublishedURL, 0, "", 0)},
			want: memory.PublishedURL,
		},
		{
			name: "Panel Only",
			opts: []memory.EditorOption{memory.WithPublishSignals("", 0, panelURL, 0)},
			want: panelURL,
		},
		{
			name: "Panel Before Slow Toast",
			opts: []memory.EditorOption{memory.WithPublishSignals(memory.PublishedURL, 300*time.Millisecond, panelURL, 0)},
			want: panelURL,
		},
		{
			name: "Malformed Toast",
			opts: []memory.EditorOption{memory.WithPublishSignals("/relative/only", 0, panelURL, 30*time.Millisecond)},
			want: panelURL,
		},
		{
			name: "Pre-Publish Panel",
			opts: []memory.EditorOption{memory.WithPrePublishPanel()},
			want: memory.PublishedURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop), tt.opts...)
			u, err := ed.Publish(ctx, domain.PublishOptions{})
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, tt.want, u.String())
			assert.NotEmpty(t, u.Host)
			assert.Equal(t, domain.StatusPublished, ed.Status())
		})
	}

	t.Run("Slow Toast Within Notice Bound", func(t *testing.T) {
		cfg := fastConfig(domain.ViewportDesktop)
		cfg.Timeouts.Step = 100 * time.Millisecond
		ed, _ := openEditor(t, cfg, memory.WithPublishSignals(memory.PublishedURL, 300*time.Millisecond, "", 0))

		u, err := ed.Publish(ctx, domain.PublishOptions{})
		require.NoError(t, err, "the url race is bounded by the notice timeout, not the step timeout")
		assert.Equal(t, memory.PublishedURL, u.String())
	})

	t.Run("No Signal Times Out", func(t *testing.T) {
		cfg := fastConfig(domain.ViewportDesktop)
		cfg.Timeouts.Step = 30 * time.Millisecond
		cfg.Timeouts.Notice = 80 * time.Millisecond
		ed, _ := openEditor(t, cfg, memory.WithPublishSignals("", 0, "", 0))

		u, err := ed.Publish(ctx, domain.PublishOptions{})
		assert.Nil(t, u)
		var timeout *domain.TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "read published url", timeout.Op)
		assert.Equal(t, 80*time.Millisecond, timeout.Bound)
		assert.Equal(t, domain.StatusReady, ed.Status(), "a failed publish returns to ready")
	})
}

func TestPublish_Visit(t *testing.T) {
	ctx := context.Background()

	t.Run("Retries Until Visible", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithNotFoundVisits(2))
		u, err := ed.Publish(ctx, domain.PublishOptions{Visit: true})
		require.NoError(t, err)
		assert.Equal(t, memory.PublishedURL, u.String())

		visits := 0
		for _, v := range page.Visits() {
			if v == memory.PublishedURL {
				visits++
			}
		}
		assert.Equal(t, 3, visits)
		assert.Equal(t, domain.StatusUnloaded, ed.Status())
	})

	t.Run("Gives Up After Attempts", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithNotFoundVisits(5))
		u, err := ed.Publish(ctx, domain.PublishOptions{Visit: true})
		require.NotNil(t, u, "the document was published even though it is not visible")

		var mismatch *domain.VerificationMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "visit published", mismatch.Op)
		assert.Equal(t, "status 404", mismatch.Observed)
	})
}

func TestRetry_Backoff(t *testing.T) {
	r := editor.Retry{Attempts: 4, Delay: 100 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, r.Backoff(0))
	assert.Equal(t, 400*time.Millisecond, r.Backoff(2))

	constant := editor.Retry{Delay: time.Second}
	assert.Equal(t, time.Second, constant.Backoff(5))
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("Schedules", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.Schedule(ctx, time.Date(2027, time.January, 15, 8, 5, 0, 0, time.UTC)))
		assert.Equal(t, domain.StatusScheduled, ed.Status())
	})

	t.Run("Page Document", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithDocumentKind(panel.KindPage))
		require.NoError(t, ed.Schedule(ctx, time.Date(2027, time.January, 15, 8, 5, 0, 0, time.UTC)))
	})

	t.Run("Zero Date Rejected Before Any Action", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		before := len(page.Editor().Actions())

		err := ed.Schedule(ctx, time.Time{})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.Len(t, page.Editor().Actions(), before)
		assert.Equal(t, domain.StatusReady, ed.Status())
	})
}

func TestSetVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("Private Accepts Dialog", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.SetVisibility(ctx, domain.VisibilityPrivate, domain.VisibilityOptions{}))
		assert.Equal(t, []bool{true}, page.Dialogs())
	})

	t.Run("Private After Visiting Published Document", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		_, err := ed.Publish(ctx, domain.PublishOptions{Visit: true})
		require.NoError(t, err)
		require.NoError(t, ed.Visit(ctx, page.Address()))

		require.NoError(t, ed.SetVisibility(ctx, domain.VisibilityPrivate, domain.VisibilityOptions{}))
		assert.Equal(t, []bool{true}, page.Dialogs())
		assert.Zero(t, page.Armed())
	})

	t.Run("Password", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.SetVisibility(ctx, domain.VisibilityPassword, domain.VisibilityOptions{Password: "hunter2"}))
	})

	t.Run("Password Required", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		before := len(page.Editor().Actions())
		err := ed.SetVisibility(ctx, domain.VisibilityPassword, domain.VisibilityOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.Len(t, page.Editor().Actions(), before)
	})
}

func TestTaxonomyAndSlug(t *testing.T) {
	ctx := context.Background()
	ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))

	require.NoError(t, ed.SelectCategory(ctx, "Quotes"))
	require.NoError(t, ed.AddTag(ctx, "  e2e  "))
	require.NoError(t, ed.SetSlug(ctx, "hello-world"))

	tags, err := page.Editor().TextAll(ctx, panel.SelectorTagToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2e"}, tags)

	assert.ErrorIs(t, ed.SetSlug(ctx, ""), domain.ErrInvalidConfig)
}

func TestUnpublish(t *testing.T) {
	ctx := context.Background()

	t.Run("Reverts To Draft", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
		_, err := ed.Publish(ctx, domain.PublishOptions{})
		require.NoError(t, err)

		require.NoError(t, ed.Unpublish(ctx))
		assert.Equal(t, domain.StatusDraft, ed.Status())
	})

	t.Run("Dialog Never Shown", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		_, err := ed.Publish(ctx, domain.PublishOptions{})
		require.NoError(t, err)
		page.Editor().OnClick(panel.SelectorSwitchToDraft, func(*memory.Surface) error { return nil })

		err = ed.Unpublish(ctx)
		var unhandled *domain.DialogUnhandledError
		require.ErrorAs(t, err, &unhandled)
		assert.Equal(t, 100*time.Millisecond, unhandled.Bound)
		assert.Equal(t, domain.StatusPublished, ed.Status())
		assert.Zero(t, page.Armed(), "an unanswered listener does not outlive the workflow")
	})

	t.Run("After Visiting Published Document", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		_, err := ed.Publish(ctx, domain.PublishOptions{Visit: true})
		require.NoError(t, err)
		require.NoError(t, ed.Visit(ctx, page.Address()))

		require.NoError(t, ed.Unpublish(ctx))
		assert.Equal(t, domain.StatusDraft, ed.Status())
		assert.Equal(t, []bool{true}, page.Dialogs())
		assert.Zero(t, page.Armed())
	})

	t.Run("Notice Never Shown", func(t *testing.T) {
		cfg := fastConfig(domain.ViewportDesktop)
		cfg.Timeouts.Notice = 50 * time.Millisecond
		ed, _ := openEditor(t, cfg, memory.WithSilentRevert())
		_, err := ed.Publish(ctx, domain.PublishOptions{})
		require.NoError(t, err)

		err = ed.Unpublish(ctx)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})
}

func TestSaveDraft(t *testing.T) {
	ed, _ := openEditor(t, fastConfig(domain.ViewportDesktop))
	require.NoError(t, ed.SaveDraft(context.Background()))
	assert.Equal(t, domain.StatusDraft, ed.Status())
}

func TestExitEditor(t *testing.T) {
	ctx := context.Background()

	for _, exit := range []string{
		"https://wordpress.com/home/example.wordpress.com",
		"https://wordpress.com/posts/example.wordpress.com",
		"https://wordpress.com/pages/example.wordpress.com",
	} {
		t.Run(exit, func(t *testing.T) {
			ed, _ := openEditor(t, fastConfig(domain.ViewportMobile), memory.WithExitURL(exit))
			landed, err := ed.ExitEditor(ctx)
			require.NoError(t, err)
			assert.Equal(t, exit, landed)
			assert.Equal(t, domain.StatusUnloaded, ed.Status())
		})
	}

	t.Run("Unknown Destination", func(t *testing.T) {
		cfg := fastConfig(domain.ViewportDesktop)
		cfg.Timeouts.Navigation = 50 * time.Millisecond
		cfg.ExitPatterns = []*regexp.Regexp{regexp.MustCompile(`/reader/`)}
		ed, _ := openEditor(t, cfg)

		_, err := ed.ExitEditor(ctx)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})
}

func TestPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("Mobile Preview In Desktop Viewport", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		before := len(page.Editor().Actions())

		_, err := ed.PreviewAsMobile(ctx)
		var mismatch *domain.ModeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, domain.ViewportMobile, mismatch.Required)
		assert.Len(t, page.Editor().Actions(), before, "no click before the mode check")
	})

	t.Run("Desktop Preview In Mobile Viewport", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportMobile))
		before := len(page.Editor().Actions())

		err := ed.PreviewAsDesktop(ctx, domain.PreviewTablet)
		assert.ErrorIs(t, err, domain.ErrModeMismatch)
		assert.Len(t, page.Editor().Actions(), before)
	})

	t.Run("Mobile", func(t *testing.T) {
		ed, _ := openEditor(t, fastConfig(domain.ViewportMobile))
		preview, err := ed.PreviewAsMobile(ctx)
		require.NoError(t, err)
		assert.Equal(t, memory.FrameID(panel.SelectorPreviewFrame), preview.ID())

		require.NoError(t, ed.ClosePreview(ctx))
		require.NoError(t, ed.ClosePreview(ctx))
	})

	t.Run("Desktop Devices", func(t *testing.T) {
		ed, page := openEditor(t, fastConfig(domain.ViewportDesktop))
		require.NoError(t, ed.PreviewAsDesktop(ctx, domain.PreviewTablet))
		assert.Equal(t, "Tablet", page.PreviewDevice())

		require.NoError(t, ed.ClosePreview(ctx))
		assert.Equal(t, "Desktop", page.PreviewDevice())

		assert.ErrorIs(t, ed.PreviewAsDesktop(ctx, "Watch"), domain.ErrInvalidConfig)
	})
}

func TestCloseAllPanels(t *testing.T) {
	ctx := context.Background()
	ed, page := openEditor(t, fastConfig(domain.ViewportDesktop), memory.WithPublishSignals(memory.PublishedURL, 0, "", 0))

	require.NoError(t, ed.SelectCategory(ctx, "Quotes"))
	_, err := ed.Publish(ctx, domain.PublishOptions{})
	require.NoError(t, err)

	require.NoError(t, ed.CloseAllPanels(ctx))
	require.NoError(t, ed.CloseAllPanels(ctx), "closing twice never fails")
	assert.Equal(t, domain.StatusReady, ed.Status())

	n, err := page.Editor().Count(ctx, panel.SelectorSettingsSidebar)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLifecycleHooks(t *testing.T) {
	ctx := context.Background()

	var (
		mu        sync.Mutex
		statuses  []domain.EditorStatus
		workflows []string
		failures  int
	)
	hooks := domain.LifecycleHooks{
		OnWorkflowEnd: func(_ context.Context, ev *domain.WorkflowEvent) {
			mu.Lock()
			defer mu.Unlock()
			workflows = append(workflows, ev.Workflow)
			if ev.Err != nil {
				failures++
			}
		},
		OnStatusChange: func(_ context.Context, ev *domain.StatusEvent) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, ev.To)
		},
	}

	page := memory.NewEditorPage()
	ed, err := editor.New(page, fastConfig(domain.ViewportDesktop), editor.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, ed.Visit(ctx, page.Address()))
	_, err = ed.Publish(ctx, domain.PublishOptions{})
	require.NoError(t, err)
	_, err = ed.PreviewAsMobile(ctx)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EditorStatus{
		domain.StatusLoading, domain.StatusReady, domain.StatusPublishing, domain.StatusPublished,
	}, statuses)
	assert.Equal(t, []string{"visit", "publish", "preview as mobile"}, workflows)
	assert.Equal(t, 1, failures)
}
