package ports

import (
	"context"

	"github.com/aretw0/easel/pkg/domain"
)

// RunStore defines the interface for persisting scenario run records.
type RunStore interface {
	// Save persists the record under its ID.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
