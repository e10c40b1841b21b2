package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	ctx := context.Background()
	path := writeScenario(t, draftScenario)

	var out bytes.Buffer
	require.NoError(t, Graph(ctx, GraphOptions{Path: path}, &out))
	assert.Contains(t, out.String(), `start(("cli-draft"))`)
	assert.NotContains(t, out.String(), "classDef")

	env := EnvOptions{Store: StoreFile, StoreDir: t.TempDir(), Browser: BrowserMemory}
	_, err := RunOnce(ctx, RunOptions{EnvOptions: env, Path: path, RunID: "graphed", Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, Graph(ctx, GraphOptions{EnvOptions: env, Path: path, RunID: "graphed"}, &out))
	assert.Contains(t, out.String(), "class step_1 skipped;")
	assert.Contains(t, out.String(), "class done passed;")

	err = Graph(ctx, GraphOptions{EnvOptions: env, Path: path, RunID: "missing"}, &out)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
