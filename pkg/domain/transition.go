package domain

// transitions lists the allowed status changes besides the universal ones
// (any status may reload into Loading or exit into Unloaded).
var transitions = map[EditorStatus][]EditorStatus{
	StatusLoading:    {StatusReady},
	StatusReady:      {StatusReady, StatusPublishing, StatusScheduling, StatusDraft},
	StatusPublishing: {StatusPublished, StatusReady},
	StatusScheduling: {StatusScheduled, StatusReady},
	StatusPublished:  {StatusReady, StatusDraft, StatusPublishing, StatusScheduling},
	StatusScheduled:  {StatusReady, StatusDraft, StatusPublishing, StatusScheduling},
	StatusDraft:      {StatusReady, StatusDraft, StatusPublishing, StatusScheduling},
}

// CanTransition reports whether the editor may move from one status to another.
func CanTransition(from, to EditorStatus) bool {
	if to == StatusLoading || to == StatusUnloaded {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns a TransitionError when it is not allowed.
func Transition(from, to EditorStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
