package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/easel/internal/presentation/graph"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/scenario"
)

// GraphOptions configures the graph command.
type GraphOptions struct {
	EnvOptions
	Path  string
	RunID string // optional run whose outcome is overlaid
}

// Graph prints the Mermaid flowchart of the scenario at opts.Path.
func Graph(ctx context.Context, opts GraphOptions, w io.Writer) error {
	sc, err := scenario.ParseFile(opts.Path)
	if err != nil {
		return err
	}

	var run *domain.RunRecord
	if opts.RunID != "" {
		store, closeStore, err := OpenStore(ctx, opts.EnvOptions)
		if err != nil {
			return err
		}
		defer closeStore()
		if run, err = store.Load(ctx, opts.RunID); err != nil {
			return fmt.Errorf("failed to load run '%s': %w", opts.RunID, err)
		}
	}

	_, err = io.WriteString(w, graph.GenerateMermaid(sc, run))
	return err
}
