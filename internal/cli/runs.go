package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/aretw0/easel/pkg/ports"
)

// ListRuns prints the recorded run IDs.
func ListRuns(ctx context.Context, store ports.RunStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// ShowRun prints one run record, as JSON or as a report.
func ShowRun(ctx context.Context, store ports.RunStore, runID string, asJSON bool, w io.Writer) error {
	record, err := store.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run '%s': %w", runID, err)
	}
	if asJSON {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err = io.WriteString(w, tui.Report(record))
	return err
}

// DeleteRun removes one run record.
func DeleteRun(ctx context.Context, store ports.RunStore, runID string, w io.Writer) error {
	if _, err := store.Load(ctx, runID); err != nil {
		return fmt.Errorf("failed to load run '%s': %w", runID, err)
	}
	if err := store.Delete(ctx, runID); err != nil {
		return fmt.Errorf("failed to delete run '%s': %w", runID, err)
	}
	fmt.Fprintf(w, "Run '%s' deleted.\n", runID)
	return nil
}
