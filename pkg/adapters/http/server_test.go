package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/scenario"
	"github.com/aretw0/easel/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftDoc = `
name: draft
url: ` + memory.EditorURL + `
account: http-test
timeouts: {surface: 1s, step: 1s, notice: 1s, navigation: 1s}
steps:
  - action: enter_title
    with: {text: From HTTP}
  - action: preview_mobile
    when: viewport == "mobile"
  - action: save_draft
`

// newTestServer wires a memory-backed runner whose steps are broadcast by the server.
func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	var srv *Server
	runner := scenario.NewRunner(memory.EditorBrowser(), mgr,
		scenario.WithStepObserver(func(ctx context.Context, runID string, res domain.StepResult) {
			srv.ObserveStep(ctx, runID, res)
		}),
	)
	srv = NewServer(runner, opts...)
	return srv, mgr
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "easel-http", info["app"])
	assert.NotEmpty(t, info["version"])

	w = do(t, h, http.MethodOptions, "/runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/runs", draftDoc)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted RunAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Len(t, accepted.ID, 36)
	assert.Equal(t, domain.RunRunning, accepted.Status)
	assert.Equal(t, "/runs/"+accepted.ID, w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/runs/"+accepted.ID, "")
	assert.Equal(t, http.StatusOK, w.Code, "the run is visible as soon as it is accepted")

	srv.Wait()

	w = do(t, h, http.MethodGet, "/runs/"+accepted.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, domain.RunPassed, record.Status)
	assert.Equal(t, "draft", record.Scenario)
	assert.Len(t, record.Steps, 3)
	assert.Equal(t, domain.StatusDraft, record.EditorStatus)

	w = do(t, h, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Equal(t, []string{accepted.ID}, ids)

	w = do(t, h, http.MethodDelete, "/runs/"+accepted.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/runs/"+accepted.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartRun_Invalid(t *testing.T) {
	srv, mgr := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/runs", "name: broken\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid scenario")

	ids, err := mgr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "rejected scenarios are never recorded")

	w = do(t, h, http.MethodPost, "/runs", strings.Repeat("#", MaxScenarioBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestListRuns_Empty(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "easel_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv, _ := newTestServer(t, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "easel_test_total 1")
}

func TestSubscribeEvents(t *testing.T) {
	srv, mgr := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Hold the account so the run waits until the subscriber is connected.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = mgr.WithLease(context.Background(), "account:http-test", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	resp, err := http.Post(ts.URL+"/runs", "application/yaml", strings.NewReader(draftDoc))
	require.NoError(t, err)
	var accepted RunAccepted
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/runs/"+accepted.ID+"/events?watch=ok,error", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(stream.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "event: ") {
			continue
		}
		events = append(events, strings.TrimPrefix(line, "event: "))
		if events[len(events)-1] == "ping" {
			close(release)
		}
	}

	assert.Equal(t, []string{"ping", "step", "step", "done"}, events, "the skipped step is filtered out")
	srv.Wait()

	t.Run("Finished Run", func(t *testing.T) {
		w := do(t, srv.Handler(), http.MethodGet, "/runs/"+accepted.ID+"/events", "")
		assert.Contains(t, w.Body.String(), "event: done")
		assert.Contains(t, w.Body.String(), `"status":"passed"`)
	})

	t.Run("Unknown Run", func(t *testing.T) {
		w := do(t, srv.Handler(), http.MethodGet, "/runs/nope/events", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
