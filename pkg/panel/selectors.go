package panel

import "fmt"

// Canvas.
const (
	SelectorTitle           = ".editor-post-title__input"
	SelectorAppender        = ".block-editor-default-block-appender__content"
	SelectorParagraph       = "p.wp-block-paragraph"
	SelectorParagraphActive = "p.wp-block-paragraph.is-selected"
	SelectorWelcomeGuide    = ".edit-post-welcome-guide"
)

// Toolbar and block inserter.
const (
	SelectorInserterToggle = "button.edit-post-header-toolbar__inserter-toggle"
	SelectorInserterMenu   = ".block-editor-inserter__menu"
	SelectorInserterSearch = ".block-editor-inserter__search input"
	SelectorInserterResult = ".block-editor-block-types-list__item"
	SelectorPublishButton  = ".editor-post-publish-button__button"
	SelectorSaveDraft      = ".editor-post-save-draft"
	SelectorSavedState     = ".editor-post-saved-state.is-saved"
	SelectorSettingsToggle = `button[aria-label="Settings"]`
	SelectorPreviewButton  = ".block-editor-post-preview__button-toggle"
	SelectorPreviewMenu    = ".block-editor-post-preview__dropdown-content"
	SelectorPreviewFrame   = "iframe.editor-post-preview__frame"
	SelectorPreviewClose   = `button[aria-label="Close preview"]`
)

// Publish panel.
const (
	SelectorPublishPanel        = ".editor-post-publish-panel"
	SelectorPublishPanelConfirm = ".editor-post-publish-panel__header-publish-button button"
	SelectorPublishPanelAddress = ".post-publish-panel__postpublish-post-address input"
	SelectorPublishPanelClose   = `.editor-post-publish-panel__header button[aria-label="Close panel"]`
)

// Navigation sidebar.
const (
	SelectorNavToggle      = "button.edit-post-fullscreen-mode-close"
	SelectorNavSidebar     = ".wpcom-block-editor-nav-sidebar-nav-sidebar__container"
	SelectorNavDismiss     = "button.wpcom-block-editor-nav-sidebar-nav-sidebar__dismiss-button"
	SelectorNavExit        = "a.wpcom-block-editor-nav-sidebar-nav-sidebar__home-button"
	SelectorNavExitCompact = "a.wpcom-block-editor-nav-sidebar-nav-sidebar__back-button"
)

// Settings sidebar.
const (
	SelectorSettingsSidebar    = ".interface-complementary-area.edit-post-sidebar"
	SelectorSettingsClose      = `button[aria-label="Close Settings"]`
	SelectorVisibilityToggle   = ".edit-post-post-visibility__toggle"
	SelectorVisibilityPassword = ".editor-post-visibility__password-input"
	SelectorScheduleToggle     = ".edit-post-post-schedule__toggle"
	SelectorScheduleDay        = ".components-datetime__time-field-day input"
	SelectorScheduleMonth      = ".components-datetime__time-field-month select"
	SelectorScheduleYear       = ".components-datetime__time-field-year input"
	SelectorScheduleHours      = ".components-datetime__time-field-hours-input input"
	SelectorScheduleMinutes    = ".components-datetime__time-field-minutes-input input"
	SelectorTagInput           = ".components-form-token-field__input"
	SelectorTagToken           = ".components-form-token-field__token-text"
	SelectorSlugInput          = ".editor-post-slug input"
	SelectorSwitchToDraft      = ".editor-post-switch-to-draft"
)

// Notices.
const (
	SelectorSnackbar     = ".components-snackbar__content"
	SelectorSnackbarLink = ".components-snackbar a"
	SelectorNotFound     = "body.error404"
)

// DocumentTabSelector returns the settings tab of a document kind ("Post" or "Page").
func DocumentTabSelector(kind string) string {
	return fmt.Sprintf(`button[data-label=%q]`, kind)
}

// SectionToggleSelector returns the toggle of a settings section.
func SectionToggleSelector(name string) string {
	return fmt.Sprintf(`button.components-panel__body-toggle[data-label=%q]`, name)
}

// VisibilityOptionSelector returns the radio of a visibility level.
func VisibilityOptionSelector(value string) string {
	return fmt.Sprintf(`input[name="editor-post-visibility"][value=%q]`, value)
}

// CategorySelector returns the checkbox of a category.
func CategorySelector(name string) string {
	return fmt.Sprintf(`input[type="checkbox"][data-term=%q]`, name)
}

// PreviewDeviceSelector returns the preview menu entry of a device.
func PreviewDeviceSelector(device string) string {
	return fmt.Sprintf(`button[role="menuitemradio"][data-device=%q]`, device)
}
