package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to domain.EditorStatus
		allowed  bool
	}{
		{domain.StatusUnloaded, domain.StatusLoading, true},
		{domain.StatusLoading, domain.StatusReady, true},
		{domain.StatusReady, domain.StatusPublishing, true},
		{domain.StatusPublishing, domain.StatusPublished, true},
		{domain.StatusPublishing, domain.StatusReady, true},
		{domain.StatusPublished, domain.StatusDraft, true},
		{domain.StatusScheduling, domain.StatusScheduled, true},
		{domain.StatusDraft, domain.StatusUnloaded, true},
		{domain.StatusUnloaded, domain.StatusReady, false},
		{domain.StatusLoading, domain.StatusPublishing, false},
		{domain.StatusPublishing, domain.StatusScheduled, false},
		{domain.StatusReady, domain.StatusPublished, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, domain.CanTransition(tt.from, tt.to))
			err := domain.Transition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			var terr *domain.TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.from, terr.From)
		})
	}
}

func TestEditorStatus_Busy(t *testing.T) {
	assert.True(t, domain.StatusPublishing.Busy())
	assert.True(t, domain.StatusScheduling.Busy())
	assert.False(t, domain.StatusReady.Busy())
}

func TestParseViewport(t *testing.T) {
	v, err := domain.ParseViewport("")
	require.NoError(t, err)
	assert.Equal(t, domain.ViewportDesktop, v)

	v, err = domain.ParseViewport("mobile")
	require.NoError(t, err)
	assert.True(t, v.IsCompact())

	_, err = domain.ParseViewport("tablet")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.EqualError(t, err, `field "viewport": expected desktop or mobile (got tablet)`)
}

func TestErrorTaxonomy(t *testing.T) {
	cause := context.DeadlineExceeded
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"Surface Not Found", &domain.SurfaceNotFoundError{Selector: "iframe.editor", Waited: time.Second, Cause: cause}, domain.ErrSurfaceNotFound},
		{"Verification Mismatch", &domain.VerificationMismatchError{Op: "enter title", Expected: "a", Observed: "b"}, domain.ErrVerificationMismatch},
		{"Mode Mismatch", &domain.ModeMismatchError{Op: "preview mobile", Required: domain.ViewportMobile, Actual: domain.ViewportDesktop}, domain.ErrModeMismatch},
		{"Timeout", &domain.TimeoutError{Op: "publish", Bound: time.Second, Cause: cause}, domain.ErrTimeout},
		{"Dialog Unhandled", &domain.DialogUnhandledError{Op: "unpublish", Bound: time.Second}, domain.ErrDialogUnhandled},
		{"Config", &domain.ConfigError{Field: "timeouts.step", Reason: "must be positive"}, domain.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("workflow: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range []error{domain.ErrSurfaceNotFound, domain.ErrVerificationMismatch, domain.ErrModeMismatch, domain.ErrTimeout, domain.ErrDialogUnhandled, domain.ErrInvalidConfig} {
				if other != tt.sentinel {
					assert.False(t, errors.Is(wrapped, other), "%v is not %v", tt.err, other)
				}
			}
		})
	}

	t.Run("Causes Stay Reachable", func(t *testing.T) {
		assert.ErrorIs(t, &domain.TimeoutError{Op: "publish", Cause: cause}, context.DeadlineExceeded)
		assert.ErrorIs(t, &domain.SurfaceNotFoundError{Cause: cause}, context.DeadlineExceeded)
	})
}

func TestRunRecord(t *testing.T) {
	r := domain.NewRunRecord("r-1", "publish-quote")
	assert.Equal(t, domain.RunRunning, r.Status)
	assert.False(t, r.Finished())

	r.Outputs[domain.OutputTitle] = "Hello"
	r.Steps = append(r.Steps, domain.StepResult{Action: domain.ActionEnterTitle})

	c := r.Clone()
	c.Outputs[domain.OutputTitle] = "Changed"
	c.Steps[0].Output = "changed"
	c.Status = domain.RunPassed

	assert.Equal(t, "Hello", r.Outputs[domain.OutputTitle])
	assert.Empty(t, r.Steps[0].Output)
	assert.True(t, c.Finished())
	assert.Nil(t, (*domain.RunRecord)(nil).Clone())
}
