package domain

import (
	"strings"
	"time"
)

// Scenario step actions. Each maps to one orchestrator workflow.
const (
	ActionEnterTitle     = "enter_title"
	ActionEnterText      = "enter_text"
	ActionAddBlock       = "add_block"
	ActionPublish        = "publish"
	ActionVisitPublished = "visit_published"
	ActionSchedule       = "schedule"
	ActionSetVisibility  = "set_visibility"
	ActionSelectCategory = "select_category"
	ActionAddTag         = "add_tag"
	ActionSetSlug        = "set_slug"
	ActionUnpublish      = "unpublish"
	ActionSaveDraft      = "save_draft"
	ActionExitEditor     = "exit_editor"
	ActionPreviewMobile  = "preview_mobile"
	ActionPreviewDesktop = "preview_desktop"
	ActionClosePreview   = "close_preview"
	ActionClosePanels    = "close_panels"
	ActionExpectTitle    = "expect_title"
	ActionExpectText     = "expect_text"
)

// Visibility is the audience level of a published document.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityPassword Visibility = "password"
)

// PreviewTarget is a device emulated by the desktop preview menu.
type PreviewTarget string

const (
	PreviewDesktop PreviewTarget = "Desktop"
	PreviewTablet  PreviewTarget = "Tablet"
	PreviewMobile  PreviewTarget = "Mobile"
)

// Validate checks the preview target against the known devices.
func (t PreviewTarget) Validate() error {
	switch t {
	case PreviewDesktop, PreviewTablet, PreviewMobile:
		return nil
	}
	return &ConfigError{Field: "target", Reason: "expected Desktop, Tablet or Mobile", Value: string(t)}
}

// PublishOptions configures the publish workflow.
type PublishOptions struct {
	// Visit navigates to the published URL and waits until it renders.
	Visit bool `mapstructure:"visit" json:"visit,omitempty"`
}

// VisibilityOptions carries the extra inputs some visibility levels require.
type VisibilityOptions struct {
	Password string `mapstructure:"password" json:"password,omitempty"`
}

// ValidateVisibility checks a visibility level and its options before any UI action.
func ValidateVisibility(level Visibility, opts VisibilityOptions) error {
	switch level {
	case VisibilityPublic, VisibilityPrivate:
		if opts.Password != "" {
			return &ConfigError{Field: "password", Reason: "only allowed with password visibility"}
		}
		return nil
	case VisibilityPassword:
		if strings.TrimSpace(opts.Password) == "" {
			return &ConfigError{Field: "password", Reason: "required with password visibility"}
		}
		return nil
	}
	return &ConfigError{Field: "level", Reason: "expected public, private or password", Value: string(level)}
}

// ValidateSchedule rejects zero dates before any UI action.
func ValidateSchedule(at time.Time) error {
	if at.IsZero() {
		return &ConfigError{Field: "at", Reason: "schedule date is required"}
	}
	return nil
}
