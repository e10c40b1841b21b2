package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Step is one workflow invocation of a scenario.
type Step struct {
	Name   string         `mapstructure:"name" json:"name,omitempty"`
	Action string         `mapstructure:"action" json:"action"`
	With   map[string]any `mapstructure:"with" json:"with,omitempty"`
	When   string         `mapstructure:"when" json:"when,omitempty"`

	guard *Guard
}

// Label returns the step name, or its action when unnamed.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Action
}

// Scenario is a parsed and validated scenario file.
type Scenario struct {
	Name    string `mapstructure:"name" json:"name"`
	URL     string `mapstructure:"url" json:"url"`
	Account string `mapstructure:"account" json:"account,omitempty"`

	Viewport         domain.Viewport `mapstructure:"viewport" json:"viewport,omitempty"`
	StrictSurface    bool            `mapstructure:"strict_surface" json:"strict_surface,omitempty"`
	KeepWelcomeGuide bool            `mapstructure:"keep_welcome_guide" json:"keep_welcome_guide,omitempty"`
	Timeouts         editor.Timeouts `mapstructure:"timeouts" json:"timeouts"`
	PublishRetry     editor.Retry    `mapstructure:"publish_retry" json:"publish_retry"`

	Steps []Step `mapstructure:"steps" json:"steps"`
}

// Config returns the orchestrator configuration the scenario runs with.
func (s *Scenario) Config() editor.Config {
	return editor.Config{
		Viewport:         s.Viewport,
		StrictSurface:    s.StrictSurface,
		KeepWelcomeGuide: s.KeepWelcomeGuide,
		Timeouts:         s.Timeouts,
		PublishRetry:     s.PublishRetry,
	}
}

// ParseFile reads and parses a scenario file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) scenario document, validates it against the
// scenario schema and compiles its step guards.
func Parse(data []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "malformed document", Cause: err}
	}
	if raw == nil {
		return nil, &ValidationError{Reason: "empty document"}
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := decode(raw, &sc); err != nil {
		return nil, &ValidationError{Reason: "cannot decode scenario", Cause: err}
	}
	if err := sc.normalize(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) normalize() error {
	viewport, err := domain.ParseViewport(string(s.Viewport))
	if err != nil {
		return &ValidationError{Paths: []string{"/viewport"}, Reason: "unknown viewport", Cause: err}
	}
	s.Viewport = viewport

	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return &ValidationError{Paths: []string{"/url"}, Reason: "url needs a host", Cause: err}
	}
	if s.Account == "" {
		s.Account = u.Host
	}

	for i := range s.Steps {
		if err := sanitizeArgs(i, s.Steps[i].With); err != nil {
			return err
		}
		if s.Steps[i].When == "" {
			continue
		}
		g, err := CompileGuard(s.Steps[i].When)
		if err != nil {
			return &ValidationError{Paths: []string{fmt.Sprintf("/steps/%d/when", i)}, Reason: "invalid guard", Cause: err}
		}
		s.Steps[i].guard = g
	}

	if err := s.Config().Validate(); err != nil {
		return &ValidationError{Reason: "invalid editor configuration", Cause: err}
	}
	return nil
}

// decode copies a generic document into out, converting duration and RFC 3339 strings.
// Unknown keys are rejected.
func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// toJSONValue converts a YAML tree into the value model of the schema validator.
func toJSONValue(raw any) (any, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}
