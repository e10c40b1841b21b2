package domain

import "time"

// RunStatus is the outcome of a scenario run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunPassed  RunStatus = "passed"
	RunFailed  RunStatus = "failed"
)

// StepResult records the execution of one scenario step.
type StepResult struct {
	Index    int           `json:"index"`
	Name     string        `json:"name,omitempty"`
	Action   string        `json:"action"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RunRecord is the persisted result of a scenario run.
type RunRecord struct {
	ID           string            `json:"id"`
	Scenario     string            `json:"scenario"`
	Status       RunStatus         `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at,omitzero"`
	Steps        []StepResult      `json:"steps"`
	Outputs      map[string]string `json:"outputs,omitempty"`
	EditorStatus EditorStatus      `json:"editor_status,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// NewRunRecord creates a running record for a scenario.
func NewRunRecord(id, scenario string) *RunRecord {
	return &RunRecord{
		ID:        id,
		Scenario:  scenario,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
		Steps:     []StepResult{},
		Outputs:   make(map[string]string),
	}
}

// Finished reports whether the run reached a final status.
func (r *RunRecord) Finished() bool {
	return r.Status == RunPassed || r.Status == RunFailed
}

// Clone returns a copy safe for independent mutation.
func (r *RunRecord) Clone() *RunRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Steps = append([]StepResult(nil), r.Steps...)
	c.Outputs = make(map[string]string, len(r.Outputs))
	for k, v := range r.Outputs {
		c.Outputs[k] = v
	}
	return &c
}
