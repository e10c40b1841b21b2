package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSurfaceNotFound is matched by SurfaceNotFoundError.
	ErrSurfaceNotFound = errors.New("surface not found")

	// ErrVerificationMismatch is matched by VerificationMismatchError.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrModeMismatch is matched by ModeMismatchError.
	ErrModeMismatch = errors.New("mode mismatch")

	// ErrTimeout is matched by TimeoutError.
	ErrTimeout = errors.New("timeout")

	// ErrDialogUnhandled is matched by DialogUnhandledError.
	ErrDialogUnhandled = errors.New("dialog unhandled")

	// ErrInvalidTransition is returned when a workflow is invoked from an editor status that does not allow it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidConfig is matched by ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRunNotFound is returned when a run ID cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")
)

// SurfaceNotFoundError reports that the embedded editor surface did not appear in time.
type SurfaceNotFoundError struct {
	Selector string
	Waited   time.Duration
	Cause    error
}

func (e *SurfaceNotFoundError) Error() string {
	msg := fmt.Sprintf("surface %q not found after %s", e.Selector, e.Waited)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SurfaceNotFoundError) Is(target error) bool { return target == ErrSurfaceNotFound }
func (e *SurfaceNotFoundError) Unwrap() error        { return e.Cause }

// VerificationMismatchError reports that an observed value diverged from the intended one.
type VerificationMismatchError struct {
	Op       string
	Expected string
	Observed string
}

func (e *VerificationMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %q, observed %q", e.Op, e.Expected, e.Observed)
}

func (e *VerificationMismatchError) Is(target error) bool { return target == ErrVerificationMismatch }

// ModeMismatchError reports a viewport-specific workflow invoked in the wrong viewport.
type ModeMismatchError struct {
	Op       string
	Required Viewport
	Actual   Viewport
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("%s requires the %s viewport, editor runs in %s", e.Op, e.Required, e.Actual)
}

func (e *ModeMismatchError) Is(target error) bool { return target == ErrModeMismatch }

// TimeoutError reports a bounded wait that was exceeded.
type TimeoutError struct {
	Op    string
	Bound time.Duration
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Bound)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
func (e *TimeoutError) Unwrap() error        { return e.Cause }

// DialogUnhandledError reports a confirmation dialog that was not accepted within its bound.
type DialogUnhandledError struct {
	Op    string
	Bound time.Duration
}

func (e *DialogUnhandledError) Error() string {
	return fmt.Sprintf("%s: confirmation dialog not handled within %s", e.Op, e.Bound)
}

func (e *DialogUnhandledError) Is(target error) bool { return target == ErrDialogUnhandled }

// TransitionError reports a rejected editor status change.
type TransitionError struct {
	From EditorStatus
	To   EditorStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("editor cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ConfigError represents a single invalid workflow configuration field.
type ConfigError struct {
	Field  string
	Reason string
	Value  any
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }
