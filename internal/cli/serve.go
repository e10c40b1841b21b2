package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/easel/internal/logging"
	httpAdapter "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/aretw0/easel/pkg/adapters/mcp"
	"github.com/aretw0/easel/pkg/observability"
	"github.com/aretw0/easel/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the HTTP API.
type ServeOptions struct {
	EnvOptions
	Addr  string
	Debug bool
}

// observedEnvironment opens an environment whose runs feed the returned aggregator.
func observedEnvironment(ctx context.Context, opts EnvOptions, logger *slog.Logger, reg prometheus.Registerer) (*Environment, *observability.Aggregator, error) {
	agg := observability.NewAggregator()
	agg.AddHooks(observability.LoggingHooks(logger))
	if reg != nil {
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, nil, err
		}
		agg.AddHooks(metrics.Hooks())
		agg.AddStepObserver(metrics.ObserveStep)
		agg.AddRunObserver(metrics.ObserveRun)
	}
	env, err := NewEnvironment(ctx, opts, logger,
		scenario.WithLifecycleHooks(agg.Hooks()),
		scenario.WithStepObserver(agg.ObserveStep),
		scenario.WithRunObserver(agg.ObserveRun),
	)
	if err != nil {
		return nil, nil, err
	}
	return env, agg, nil
}

// NewAPI wires an HTTP API server over a fresh environment.
// reg receives the metrics and backs /metrics.
func NewAPI(ctx context.Context, opts EnvOptions, logger *slog.Logger, reg *prometheus.Registry) (*httpAdapter.Server, *Environment, error) {
	env, agg, err := observedEnvironment(ctx, opts, logger, reg)
	if err != nil {
		return nil, nil, err
	}
	srv := httpAdapter.NewServer(env.Runner,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithBaseContext(ctx),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	agg.AddStepObserver(srv.ObserveStep)
	return srv, env, nil
}

// Serve runs the HTTP API until ctx is done, then waits for in-flight runs.
func Serve(ctx context.Context, opts ServeOptions, w io.Writer) error {
	logger := logging.NewWithWriter(w, slog.LevelInfo)
	if opts.Debug {
		logger = logging.NewWithWriter(w, slog.LevelDebug)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api, env, err := NewAPI(ctx, opts.EnvOptions, logger, reg)
	if err != nil {
		return err
	}
	defer env.Close()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting easel server", "addr", srv.Addr, "store", opts.Store, "browser", opts.Browser)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			_ = srv.Close()
		}
		api.Wait()
		logger.Info("easel server stopped gracefully")
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	EnvOptions
	Transport string // stdio or sse
	Port      int
	Debug     bool
}

// ServeMCP runs the MCP server until ctx is done (sse) or stdin closes (stdio).
// Logs go to w since stdout carries JSON-RPC.
func ServeMCP(ctx context.Context, opts MCPOptions, w io.Writer) error {
	logger := createLogger(opts.Debug, w)
	env, _, err := observedEnvironment(ctx, opts.EnvOptions, logger, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	srv := mcp.NewServer(env.Runner, mcp.WithLogger(logger))
	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting easel MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", opts.Transport)
}
