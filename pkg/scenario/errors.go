package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidScenario is matched by ValidationError.
var ErrInvalidScenario = errors.New("invalid scenario")

// ValidationError reports a scenario document that cannot be run.
type ValidationError struct {
	Paths  []string // Instance locations of the offending values, if known
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	msg := "invalid scenario"
	if len(e.Paths) > 0 {
		msg += " at " + strings.Join(e.Paths, ", ")
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidScenario }
func (e *ValidationError) Unwrap() error        { return e.Cause }

// StepError reports the failure of one scenario step.
type StepError struct {
	Index  int
	Step   string
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
