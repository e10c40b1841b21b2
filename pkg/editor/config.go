package editor

import (
	"regexp"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/surface"
)

// Timeouts bounds each kind of wait a workflow performs.
type Timeouts struct {
	// Surface bounds the resolution of the embedded editor surface.
	Surface time.Duration `mapstructure:"surface" json:"surface,omitempty"`
	// Step bounds a single panel operation.
	Step time.Duration `mapstructure:"step" json:"step,omitempty"`
	// PanelSettle is how long to wait for an optional panel (pre-publish) to open.
	PanelSettle time.Duration `mapstructure:"panel_settle" json:"panel_settle,omitempty"`
	// Notice bounds waits for snackbar notices and the published URL race.
	Notice time.Duration `mapstructure:"notice" json:"notice,omitempty"`
	// Dialog bounds the acceptance of confirmation dialogs.
	Dialog time.Duration `mapstructure:"dialog" json:"dialog,omitempty"`
	// Navigation bounds page loads and URL changes.
	Navigation time.Duration `mapstructure:"navigation" json:"navigation,omitempty"`
}

// Retry bounds the reload-and-retry loop of the published page check.
type Retry struct {
	Attempts int           `mapstructure:"attempts" json:"attempts,omitempty"`
	Delay    time.Duration `mapstructure:"delay" json:"delay,omitempty"`
	// Multiplier grows Delay after every failed attempt. Values below 1 keep it constant.
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier,omitempty"`
}

// Backoff returns the delay before retry n (0-based).
func (r Retry) Backoff(n int) time.Duration {
	d := r.Delay
	if r.Multiplier <= 1 {
		return d
	}
	for i := 0; i < n; i++ {
		d = time.Duration(float64(d) * r.Multiplier)
	}
	return d
}

// Config is the immutable configuration of an Editor.
type Config struct {
	Viewport      domain.Viewport `mapstructure:"viewport" json:"viewport"`
	StrictSurface bool            `mapstructure:"strict_surface" json:"strict_surface,omitempty"`
	Timeouts      Timeouts        `mapstructure:"timeouts" json:"timeouts"`
	PublishRetry  Retry           `mapstructure:"publish_retry" json:"publish_retry"`

	// ExitPatterns are the destinations accepted after leaving the editor.
	ExitPatterns []*regexp.Regexp `mapstructure:"-" json:"-"`

	// KeepWelcomeGuide leaves the onboarding overlay in place on load.
	KeepWelcomeGuide bool `mapstructure:"keep_welcome_guide" json:"keep_welcome_guide,omitempty"`
}

// Default exit destinations: site home, posts list and pages list.
var (
	ExitHome  = regexp.MustCompile(`/home/`)
	ExitPosts = regexp.MustCompile(`/posts/`)
	ExitPages = regexp.MustCompile(`/pages/`)
)

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{
		Viewport: domain.ViewportDesktop,
		Timeouts: Timeouts{
			Surface:     surface.DefaultTimeout,
			Step:        panel.DefaultTimeout,
			PanelSettle: 2 * time.Second,
			Notice:      30 * time.Second,
			Dialog:      5 * time.Second,
			Navigation:  30 * time.Second,
		},
		PublishRetry: Retry{Attempts: 3, Delay: 2 * time.Second, Multiplier: 2},
		ExitPatterns: []*regexp.Regexp{ExitHome, ExitPosts, ExitPages},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Viewport == "" {
		c.Viewport = d.Viewport
	}
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.Timeouts.Surface, d.Timeouts.Surface)
	fill(&c.Timeouts.Step, d.Timeouts.Step)
	fill(&c.Timeouts.PanelSettle, d.Timeouts.PanelSettle)
	fill(&c.Timeouts.Notice, d.Timeouts.Notice)
	fill(&c.Timeouts.Dialog, d.Timeouts.Dialog)
	fill(&c.Timeouts.Navigation, d.Timeouts.Navigation)
	if c.PublishRetry.Attempts <= 0 {
		c.PublishRetry = d.PublishRetry
	}
	if len(c.ExitPatterns) == 0 {
		c.ExitPatterns = d.ExitPatterns
	}
	return c
}

// Validate rejects configurations no workflow can run with.
func (c Config) Validate() error {
	if _, err := domain.ParseViewport(string(c.Viewport)); err != nil {
		return err
	}
	if c.PublishRetry.Attempts < 0 {
		return &domain.ConfigError{Field: "publish_retry.attempts", Reason: "must not be negative"}
	}
	for _, p := range c.ExitPatterns {
		if p == nil {
			return &domain.ConfigError{Field: "exit_patterns", Reason: "nil pattern"}
		}
	}
	return nil
}
