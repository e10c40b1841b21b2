package scenario_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/scenario"
	"github.com/aretw0/easel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, opts ...scenario.Option) (*scenario.Runner, *memory.Browser) {
	t.Helper()
	browser := memory.EditorBrowser()
	return scenario.NewRunner(browser, session.NewManager(memory.NewStore()), opts...), browser
}

// withSteps replaces the steps of the publish-quote document.
func withSteps(steps string) []byte {
	head := publishQuote[:strings.Index(publishQuote, "steps:")]
	return []byte(head + "steps:\n" + steps)
}

func TestRunner_RunDocument_Passes(t *testing.T) {
	var (
		mu       sync.Mutex
		observed []domain.StepResult
	)
	runner, browser := newRunner(t, scenario.WithStepObserver(func(_ context.Context, runID string, res domain.StepResult) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "run-1", runID)
		observed = append(observed, res)
	}))

	record, err := runner.RunDocument(context.Background(), "run-1", []byte(publishQuote))
	require.NoError(t, err)

	assert.Equal(t, "run-1", record.ID)
	assert.Equal(t, "publish-quote", record.Scenario)
	assert.Equal(t, domain.RunPassed, record.Status)
	assert.False(t, record.FinishedAt.IsZero())
	assert.Empty(t, record.Error)
	require.Len(t, record.Steps, 8)
	assert.Len(t, observed, 8)

	assert.True(t, record.Steps[5].Skipped, "mobile preview is skipped on desktop")
	assert.False(t, record.Steps[7].Skipped, "published url guard holds after publish")
	assert.Equal(t, memory.PublishedURL, record.Steps[6].Output)

	assert.Equal(t, memory.PublishedURL, record.Outputs[domain.OutputPublishedURL])
	assert.Equal(t, "Hello World", record.Outputs[domain.OutputTitle])
	assert.Equal(t, "first\nsecond", record.Outputs[domain.OutputText])
	assert.Equal(t, domain.StatusUnloaded, record.EditorStatus, "visiting the published page leaves the editor")

	pages := browser.Pages()
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Closed(), "the page is closed when the run ends")

	stored, err := runner.Store().Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunPassed, stored.Status)
	assert.Len(t, stored.Steps, 8)
}

func TestRunner_GeneratesRunID(t *testing.T) {
	runner, _ := newRunner(t)
	record, err := runner.RunDocument(context.Background(), "", withSteps("  - action: save_draft\n"))
	require.NoError(t, err)
	assert.Len(t, record.ID, 36)

	ids, err := runner.Store().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{record.ID}, ids)
}

func TestRunner_FailingStepStopsRun(t *testing.T) {
	runner, _ := newRunner(t)
	doc := withSteps(`  - action: enter_title
    with: {text: Hello}
  - action: expect_title
    with: {equals: Goodbye}
  - action: save_draft
`)

	record, err := runner.RunDocument(context.Background(), "run-fail", doc)
	require.Error(t, err)
	require.NotNil(t, record)

	var stepErr *scenario.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, domain.ActionExpectTitle, stepErr.Action)
	assert.ErrorIs(t, err, domain.ErrVerificationMismatch)

	assert.Equal(t, domain.RunFailed, record.Status)
	assert.NotEmpty(t, record.Error)
	require.Len(t, record.Steps, 2, "steps after the failure do not run")
	assert.NotEmpty(t, record.Steps[1].Error)
	assert.Equal(t, "Hello", record.Steps[1].Output)

	stored, err := runner.Store().Load(context.Background(), "run-fail")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
}

func TestRunner_UnknownArgumentFailsStep(t *testing.T) {
	runner, _ := newRunner(t)
	record, err := runner.RunDocument(context.Background(), "run-args", withSteps(`  - action: publish
    with: {visit: false, twice: true}
`))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, domain.RunFailed, record.Status)
}

func TestRunner_VisitPublishedNeedsURL(t *testing.T) {
	runner, _ := newRunner(t)
	_, err := runner.RunDocument(context.Background(), "run-visit", withSteps("  - action: visit_published\n"))
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "url", cfgErr.Field)
}

func TestRunner_InvalidDocument(t *testing.T) {
	runner, browser := newRunner(t)

	record, err := runner.RunDocument(context.Background(), "run-bad", []byte("name: x\n"))
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
	assert.Nil(t, record)
	assert.Empty(t, browser.Pages(), "invalid documents never open a page")

	ids, err := runner.Store().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, runner.Validate([]byte("name: x\n")), scenario.ErrInvalidScenario)
	assert.NoError(t, runner.Validate([]byte(publishQuote)))
}

func TestRunner_EditorNeverLoads(t *testing.T) {
	runner, _ := newRunner(t)
	doc := strings.Replace(string(withSteps("  - action: save_draft\n")), memory.EditorURL, "https://example.com/elsewhere", 1)
	doc = strings.Replace(doc, "surface: 1s", "surface: 20ms", 1)
	doc = strings.Replace(doc, "viewport: desktop", "viewport: desktop\nstrict_surface: true", 1)

	record, err := runner.RunDocument(context.Background(), "run-unloaded", []byte(doc))
	assert.ErrorIs(t, err, domain.ErrSurfaceNotFound)
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.Equal(t, domain.StatusUnloaded, record.EditorStatus)
	assert.Empty(t, record.Steps)
}

func TestRunner_MobileGuards(t *testing.T) {
	runner, _ := newRunner(t)
	doc := strings.Replace(string(withSteps(`  - action: preview_mobile
    when: viewport == "mobile"
  - action: close_preview
    when: viewport == "mobile"
  - action: preview_desktop
    when: viewport == "desktop"
`)), "viewport: desktop", "viewport: mobile", 1)

	record, err := runner.RunDocument(context.Background(), "run-mobile", []byte(doc))
	require.NoError(t, err)
	require.Len(t, record.Steps, 3)
	assert.False(t, record.Steps[0].Skipped)
	assert.Equal(t, memory.FrameID(panel.SelectorPreviewFrame), record.Steps[0].Output)
	assert.False(t, record.Steps[1].Skipped)
	assert.True(t, record.Steps[2].Skipped)
}

func TestRunner_SerializesAccount(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		overlap bool
	)
	hooks := domain.LifecycleHooks{
		OnWorkflowStart: func(context.Context, *domain.WorkflowEvent) {
			mu.Lock()
			defer mu.Unlock()
			active++
			if active > 1 {
				overlap = true
			}
		},
		OnWorkflowEnd: func(context.Context, *domain.WorkflowEvent) {
			mu.Lock()
			defer mu.Unlock()
			active--
		},
	}
	runner, browser := newRunner(t, scenario.WithLifecycleHooks(hooks))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := runner.RunDocument(context.Background(), "", withSteps("  - action: enter_title\n    with: {text: Hi}\n"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlap, "runs on one account never drive editors concurrently")
	assert.Len(t, browser.Pages(), 4)
}

func TestRunner_ContextCanceledWhileWaitingForLease(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	runner := scenario.NewRunner(memory.EditorBrowser(), mgr)

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = mgr.WithLease(context.Background(), "account:e2e-simple-site", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	record, err := runner.RunDocument(ctx, "run-wait", []byte(publishQuote))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.RunFailed, record.Status)
}

func TestRunner_RunObserver(t *testing.T) {
	var finished []*domain.RunRecord
	runner, _ := newRunner(t, scenario.WithRunObserver(func(_ context.Context, record *domain.RunRecord) {
		finished = append(finished, record)
	}))

	record, err := runner.RunDocument(context.Background(), "run-observed", withSteps("  - action: save_draft\n"))
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, domain.RunPassed, finished[0].Status)
	assert.Equal(t, record.ID, finished[0].ID)

	_, err = runner.RunDocument(context.Background(), "", []byte("name: x\n"))
	require.Error(t, err)
	assert.Len(t, finished, 1, "rejected documents never start a run")
}
