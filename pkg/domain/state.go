package domain

// EditorStatus is the lifecycle state of the editor driven by the orchestrator.
type EditorStatus string

const (
	StatusUnloaded   EditorStatus = "unloaded"   // No editor on the page
	StatusLoading    EditorStatus = "loading"    // Navigation issued, surface not confirmed
	StatusReady      EditorStatus = "ready"      // Editor usable
	StatusPublishing EditorStatus = "publishing" // Publish action in flight
	StatusPublished  EditorStatus = "published"  // Publish confirmed
	StatusScheduling EditorStatus = "scheduling" // Schedule action in flight
	StatusScheduled  EditorStatus = "scheduled"  // Schedule confirmed
	StatusDraft      EditorStatus = "draft"      // Saved or reverted to draft
)

// Busy reports whether a mutation is in flight.
func (s EditorStatus) Busy() bool {
	return s == StatusPublishing || s == StatusScheduling
}
