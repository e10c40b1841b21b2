package ports

import (
	"context"

	"github.com/aretw0/easel/pkg/domain"
)

// ScenarioRunner is the interface transport adapters (HTTP, MCP) use to execute scenarios.
type ScenarioRunner interface {
	// RunDocument parses, validates and executes a scenario document under runID.
	// An empty runID lets the runner generate one.
	RunDocument(ctx context.Context, runID string, document []byte) (*domain.RunRecord, error)

	// Validate parses and validates a scenario document without running it.
	Validate(document []byte) error

	// Store returns the store runs are recorded in.
	Store() RunStore
}
