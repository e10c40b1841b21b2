package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/stretchr/testify/require"
)

const draftScenario = `
name: cli-draft
url: ` + memory.EditorURL + `
account: cli-test
timeouts: {surface: 1s, step: 1s, notice: 1s, navigation: 1s}
steps:
  - action: enter_title
    with: {text: From the CLI}
  - action: preview_mobile
    when: viewport == "mobile"
  - action: save_draft
`

const mismatchScenario = `
name: cli-mismatch
url: ` + memory.EditorURL + `
account: cli-test
timeouts: {surface: 1s, step: 1s, notice: 1s, navigation: 1s}
steps:
  - action: enter_title
    with: {text: Hello}
  - action: expect_title
    with: {equals: Goodbye}
`

// writeScenario writes doc to a temporary scenario file.
func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func memoryEnv() EnvOptions {
	return EnvOptions{Store: StoreMemory, Browser: BrowserMemory}
}

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
