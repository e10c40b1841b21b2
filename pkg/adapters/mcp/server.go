package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/scenario"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemaURI is the resource serving the scenario JSON Schema.
const SchemaURI = "easel://scenario.schema.json"

// RunArgs are the arguments of run_scenario and validate_scenario.
type RunArgs struct {
	Document string `json:"document"`
	RunID    string `json:"run_id,omitempty"`
}

// GetRunArgs are the arguments of get_run.
type GetRunArgs struct {
	RunID string `json:"run_id"`
}

// Validation is the result of validate_scenario.
type Validation struct {
	Valid bool     `json:"valid" jsonschema_description:"Whether the document is a runnable scenario"`
	Error string   `json:"error,omitempty" jsonschema_description:"Why the document was rejected"`
	Paths []string `json:"paths,omitempty" jsonschema_description:"Document locations (JSON pointers) of the violations"`
}

// RunList is the result of list_runs.
type RunList struct {
	Runs []string `json:"runs" jsonschema_description:"IDs of the recorded runs"`
}

// Server exposes a scenario runner as an MCP server.
type Server struct {
	runner    ports.ScenarioRunner
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(runner ports.ScenarioRunner, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("easel-mcp", strings.TrimSpace(easel.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_scenario
	runTool := mcp.NewTool("run_scenario",
		mcp.WithDescription("Run a scenario document (YAML) against the editor and return its run record. Blocks until the run ends."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The scenario document")),
		mcp.WithString("run_id", mcp.Description("ID to record the run under (generated when omitted)")),
		mcp.WithOutputSchema[domain.RunRecord](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunScenario))

	// TOOL: validate_scenario
	validateTool := mcp.NewTool("validate_scenario",
		mcp.WithDescription("Check a scenario document without running it."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The scenario document")),
		mcp.WithOutputSchema[Validation](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateScenario))

	// TOOL: get_run
	getTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the record of a run: status, step results and outputs."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID")),
		mcp.WithOutputSchema[domain.RunRecord](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetRun))

	// TOOL: list_runs
	listTool := mcp.NewTool("list_runs",
		mcp.WithDescription("List the IDs of the recorded runs."),
		mcp.WithOutputSchema[RunList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListRuns))
}

func (s *Server) handleRunScenario(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (*domain.RunRecord, error) {
	if strings.TrimSpace(args.Document) == "" {
		return nil, errors.New("document is required")
	}
	record, err := s.runner.RunDocument(ctx, args.RunID, []byte(args.Document))
	if record == nil {
		return nil, err
	}
	if err != nil {
		// The failure is part of the record.
		s.logger.Warn("MCP run_scenario: run failed", "run_id", record.ID, "err", err)
	}
	return record, nil
}

func (s *Server) handleValidateScenario(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (Validation, error) {
	err := s.runner.Validate([]byte(args.Document))
	if err == nil {
		return Validation{Valid: true}, nil
	}
	v := Validation{Error: err.Error()}
	var verr *scenario.ValidationError
	if errors.As(err, &verr) {
		v.Paths = verr.Paths
	}
	return v, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args GetRunArgs) (*domain.RunRecord, error) {
	if args.RunID == "" {
		return nil, errors.New("run_id is required")
	}
	return s.runner.Store().Load(ctx, args.RunID)
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest, args struct{}) (RunList, error) {
	ids, err := s.runner.Store().List(ctx)
	if err != nil {
		return RunList{}, fmt.Errorf("list runs failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return RunList{Runs: ids}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: the scenario schema
	s.mcpServer.AddResource(mcp.NewResource(SchemaURI, "Scenario JSON Schema",
		mcp.WithMIMEType("application/schema+json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SchemaURI,
				MIMEType: "application/schema+json",
				Text:     string(scenario.Schema()),
			},
		}, nil
	})
}
