package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxScenarioBytes bounds the size of a submitted scenario document.
const MaxScenarioBytes = 1 << 20

// Server exposes a scenario runner over HTTP.
type Server struct {
	Runner  ports.ScenarioRunner
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	base    context.Context
	runs    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler replaces the default Prometheus handler served on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithBaseContext sets the context background runs derive from.
// Cancelling it aborts every run started by the server.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.base = ctx
	}
}

// NewServer creates a server for runner.
func NewServer(runner ports.ScenarioRunner, opts ...Option) *Server {
	s := &Server{
		Runner:  runner,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		metrics: promhttp.Handler(),
		base:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for runner with default options.
func NewHandler(runner ports.ScenarioRunner) http.Handler {
	return NewServer(runner).Handler()
}

// Handler returns the router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Post("/", s.StartRun)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
		r.Get("/{id}/events", s.SubscribeEvents)
	})
	return enableCORS(r)
}

// Wait blocks until every background run started by the server has finished.
func (s *Server) Wait() {
	s.runs.Wait()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunAccepted is the response to a started run.
type RunAccepted struct {
	ID     string           `json:"id"`
	Status domain.RunStatus `json:"status"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, apiError{Error: err.Error()})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "easel-http",
		"version": strings.TrimSpace(easel.Version),
	})
}

// ListRuns handles the GET /runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Runner.Store().List(r.Context())
	if err != nil {
		s.logger.Error("list runs failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.Runner.Store().Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("load run failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// DeleteRun handles the DELETE /runs/{id} request.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Runner.Store().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.logger.Error("delete run failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartRun handles the POST /runs request. The body is a scenario document.
// Invalid documents are rejected synchronously; valid ones run in the background.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxScenarioBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("reading scenario: %w", err))
		return
	}
	if err := s.Runner.Validate(doc); err != nil {
		s.logger.Warn("StartRun: invalid scenario", "err", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	id := uuid.NewString()
	// Record the run before answering so that an immediate GET finds it.
	if err := s.Runner.Store().Save(r.Context(), domain.NewRunRecord(id, "")); err != nil {
		s.logger.Error("StartRun: cannot record run", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		record, err := s.Runner.RunDocument(s.base, id, doc)
		if err != nil {
			s.logger.Warn("run failed", "run_id", id, "err", err)
		}
		if record != nil {
			if b, err := json.Marshal(record); err == nil {
				s.Streams.Finish(id, string(b))
				return
			}
		}
		s.Streams.Finish(id, "")
	}()

	w.Header().Set("Location", "/runs/"+id)
	s.writeJSON(w, http.StatusAccepted, RunAccepted{ID: id, Status: domain.RunRunning})
}

// ObserveStep broadcasts a step result to the subscribers of its run.
func (s *Server) ObserveStep(ctx context.Context, runID string, result domain.StepResult) {
	b, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("step encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(runID, string(b))
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // RunID -> Set of Channels
}

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
	}
}

func (sm *StreamManager) Subscribe(runID string) (chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends a step event to the run's subscribers, dropping it for slow clients.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- Event{Name: "step", Data: msg}:
		default:
			slog.Warn("SSE: Client buffer full, dropping message", "run_id", runID)
		}
	}
}

// Finish sends the final record and closes every subscription of the run.
func (sm *StreamManager) Finish(runID string, msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- Event{Name: "done", Data: msg}:
		default:
		}
		close(ch)
	}
	delete(sm.subscribers, runID)
}

// SubscribeEvents handles the GET /runs/{id}/events request (SSE).
// The optional watch parameter keeps only the listed step outcomes (ok, skipped, error).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	runID := chi.URLParam(r, "id")
	record, err := s.Runner.Store().Load(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	// The run may have finished between the first load and the subscription.
	if !record.Finished() {
		if latest, err := s.Runner.Store().Load(r.Context(), runID); err == nil {
			record = latest
		}
	}
	if record.Finished() {
		b, _ := json.Marshal(record)
		fmt.Fprintf(w, "event: done\ndata: %s\n\n", b)
		flusher.Flush()
		return
	}

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Name == "step" && len(watchList) > 0 && !watched(ev.Data, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

func watched(msg string, watchList []string) bool {
	var step domain.StepResult
	if err := json.Unmarshal([]byte(msg), &step); err != nil {
		return true
	}
	outcome := "ok"
	switch {
	case step.Skipped:
		outcome = "skipped"
	case step.Error != "":
		outcome = "error"
	}
	for _, field := range watchList {
		if strings.TrimSpace(field) == outcome {
			return true
		}
	}
	return false
}
