package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks, before saving, the outputs
// whose key matches one of the patterns and the step outputs whose name or
// action matches. Records handed to Save are not modified.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	cloned := record.Clone()
	for k := range cloned.Outputs {
		if m.matches(k) {
			cloned.Outputs[k] = Mask
		}
	}
	for i, s := range cloned.Steps {
		if s.Output != "" && (m.matches(s.Action) || (s.Name != "" && m.matches(s.Name))) {
			cloned.Steps[i].Output = Mask
		}
	}
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) matches(s string) bool {
	for _, p := range m.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
