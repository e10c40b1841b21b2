package ports

import "context"

// Watchable defines an interface for sources that can notify about backend changes.
// This is used by the watch mode of the CLI to re-run a scenario after edits.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
