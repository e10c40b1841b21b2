package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.NewRunRecord(runID, "publish-quote")
		record.Outputs[domain.OutputPublishedURL] = "https://example.wordpress.com/2024/hello"
		record.Steps = append(record.Steps, domain.StepResult{
			Index:    0,
			Action:   domain.ActionEnterTitle,
			Duration: 120 * time.Millisecond,
		})

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Scenario, loaded.Scenario)
		assert.Equal(t, domain.RunRunning, loaded.Status)
		assert.Equal(t, "https://example.wordpress.com/2024/hello", loaded.Outputs[domain.OutputPublishedURL])
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, domain.ActionEnterTitle, loaded.Steps[0].Action)
		assert.Equal(t, 120*time.Millisecond, loaded.Steps[0].Duration)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		record := domain.NewRunRecord(runID, "publish-quote")
		record.Status = domain.RunPassed
		require.NoError(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunPassed, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewRunRecord(runID, "publish-quote"))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, domain.NewRunRecord(id1, "a"))
		_ = store.Save(ctx, domain.NewRunRecord(id2, "b"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
