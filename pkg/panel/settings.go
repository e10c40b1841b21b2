package panel

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/race"
)

// Document kinds competing for the first settings tab.
const (
	KindPost = "Post"
	KindPage = "Page"
)

// Settings sections.
const (
	SectionSummary    = "Summary"
	SectionCategories = "Categories"
	SectionTags       = "Tags"
	SectionPermalink  = "Permalink"
)

// visibilityLabels maps levels to the label shown by the visibility toggle.
var visibilityLabels = map[domain.Visibility]string{
	domain.VisibilityPublic:   "Public",
	domain.VisibilityPrivate:  "Private",
	domain.VisibilityPassword: "Password protected",
}

// SettingsSidebar is the document settings sidebar.
type SettingsSidebar struct {
	base
	toggle ports.Surface
}

var _ Toggle = (*SettingsSidebar)(nil)

// NewSettingsSidebar binds the settings sidebar to a surface.
func NewSettingsSidebar(s ports.Surface, timeout time.Duration) *SettingsSidebar {
	return &SettingsSidebar{base: newBase(s, timeout)}
}

// IsOpen reports whether the sidebar is visible.
func (s *SettingsSidebar) IsOpen(ctx context.Context) (bool, error) {
	return s.isVisible(ctx, SelectorSettingsSidebar)
}

// Open opens the sidebar.
func (s *SettingsSidebar) Open(ctx context.Context) error {
	return s.open(ctx, "open settings", SelectorSettingsSidebar, SelectorSettingsToggle)
}

// Close closes the sidebar.
func (s *SettingsSidebar) Close(ctx context.Context) error {
	return s.close(ctx, "close settings", SelectorSettingsSidebar, SelectorSettingsClose)
}

// SelectDocumentTab clicks the document tab, which is labelled Post or Page
// depending on the document kind. Both are raced; exactly one exists.
func (s *SettingsSidebar) SelectDocumentTab(ctx context.Context) (string, error) {
	clickTab := func(kind string) func(ctx context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			if err := s.surface.Click(ctx, DocumentTabSelector(kind)); err != nil {
				return "", err
			}
			return kind, nil
		}
	}
	return WithinValue(ctx, "select document tab", s.timeout, func(ctx context.Context) (string, error) {
		res, err := race.First(ctx,
			race.Candidate[string]{Name: KindPost, Run: clickTab(KindPost)},
			race.Candidate[string]{Name: KindPage, Run: clickTab(KindPage)},
		)
		if err != nil {
			return "", err
		}
		return res.Value, nil
	})
}

// ExpandSection opens a collapsible settings section. Open sections are left as they are.
func (s *SettingsSidebar) ExpandSection(ctx context.Context, name string) error {
	toggle := SectionToggleSelector(name)
	return Within(ctx, "expand section "+name, s.timeout, func(ctx context.Context) error {
		expanded, err := s.surface.Attribute(ctx, toggle, "aria-expanded")
		if err != nil {
			return err
		}
		if expanded == "true" {
			return nil
		}
		if err := s.surface.Click(ctx, toggle); err != nil {
			return err
		}
		expanded, err = s.surface.Attribute(ctx, toggle, "aria-expanded")
		if err != nil {
			return err
		}
		if expanded != "true" {
			return &domain.VerificationMismatchError{Op: "expand section " + name, Expected: "true", Observed: expanded}
		}
		return nil
	})
}

// ChooseVisibility opens the visibility popover and picks a level.
// The caller handles the confirmation dialog some levels trigger.
func (s *SettingsSidebar) ChooseVisibility(ctx context.Context, level domain.Visibility, opts domain.VisibilityOptions) error {
	return Within(ctx, "choose visibility", s.timeout, func(ctx context.Context) error {
		if err := s.surface.Click(ctx, SelectorVisibilityToggle); err != nil {
			return err
		}
		if err := s.surface.Click(ctx, VisibilityOptionSelector(string(level))); err != nil {
			return err
		}
		if level == domain.VisibilityPassword {
			return s.surface.Fill(ctx, SelectorVisibilityPassword, opts.Password)
		}
		return nil
	})
}

// VerifyVisibility checks the label of the visibility toggle.
func (s *SettingsSidebar) VerifyVisibility(ctx context.Context, level domain.Visibility) error {
	return Within(ctx, "verify visibility", s.timeout, func(ctx context.Context) error {
		observed, err := s.surface.Text(ctx, SelectorVisibilityToggle)
		if err != nil {
			return err
		}
		want := visibilityLabels[level]
		if strings.TrimSpace(observed) != want {
			return &domain.VerificationMismatchError{Op: "set visibility", Expected: want, Observed: observed}
		}
		return nil
	})
}

// SetSchedule fills the publish date picker and closes it.
func (s *SettingsSidebar) SetSchedule(ctx context.Context, at time.Time) error {
	fields := []struct{ selector, value string }{
		{SelectorScheduleDay, fmt.Sprintf("%d", at.Day())},
		{SelectorScheduleMonth, fmt.Sprintf("%02d", int(at.Month()))},
		{SelectorScheduleYear, fmt.Sprintf("%d", at.Year())},
		{SelectorScheduleHours, fmt.Sprintf("%02d", at.Hour())},
		{SelectorScheduleMinutes, fmt.Sprintf("%02d", at.Minute())},
	}
	return Within(ctx, "set schedule", s.timeout, func(ctx context.Context) error {
		if err := s.surface.Click(ctx, SelectorScheduleToggle); err != nil {
			return err
		}
		for _, f := range fields {
			if err := s.surface.Fill(ctx, f.selector, f.value); err != nil {
				return err
			}
		}
		if err := s.surface.Press(ctx, "Escape"); err != nil {
			return err
		}
		label, err := s.surface.Text(ctx, SelectorScheduleToggle)
		if err != nil {
			return err
		}
		if strings.TrimSpace(label) == "" || strings.EqualFold(strings.TrimSpace(label), "Immediately") {
			return &domain.VerificationMismatchError{Op: "set schedule", Expected: at.Format(time.RFC3339), Observed: label}
		}
		return nil
	})
}

// SelectCategory ticks a category checkbox.
func (s *SettingsSidebar) SelectCategory(ctx context.Context, name string) error {
	selector := CategorySelector(name)
	return Within(ctx, "select category "+name, s.timeout, func(ctx context.Context) error {
		checked, err := s.surface.Count(ctx, selector+":checked")
		if err != nil {
			return err
		}
		if checked > 0 {
			return nil
		}
		if err := s.surface.Click(ctx, selector); err != nil {
			return err
		}
		checked, err = s.surface.Count(ctx, selector+":checked")
		if err != nil {
			return err
		}
		if checked == 0 {
			return &domain.VerificationMismatchError{Op: "select category", Expected: name + " checked", Observed: "unchecked"}
		}
		return nil
	})
}

// AddTag enters a tag into the token field.
func (s *SettingsSidebar) AddTag(ctx context.Context, name string) error {
	return Within(ctx, "add tag "+name, s.timeout, func(ctx context.Context) error {
		if err := s.surface.Fill(ctx, SelectorTagInput, name); err != nil {
			return err
		}
		if err := s.surface.Press(ctx, "Enter"); err != nil {
			return err
		}
		tokens, err := s.surface.TextAll(ctx, SelectorTagToken)
		if err != nil {
			return err
		}
		if !slices.Contains(tokens, name) {
			return &domain.VerificationMismatchError{Op: "add tag", Expected: name, Observed: strings.Join(tokens, ",")}
		}
		return nil
	})
}

// SetSlug replaces the URL slug and blurs the field so it is committed.
func (s *SettingsSidebar) SetSlug(ctx context.Context, slug string) error {
	return Within(ctx, "set slug", s.timeout, func(ctx context.Context) error {
		if err := s.surface.Fill(ctx, SelectorSlugInput, slug); err != nil {
			return err
		}
		if err := s.surface.Press(ctx, "Tab"); err != nil {
			return err
		}
		observed, err := s.surface.Attribute(ctx, SelectorSlugInput, "value")
		if err != nil {
			return err
		}
		if observed != slug {
			return &domain.VerificationMismatchError{Op: "set slug", Expected: slug, Observed: observed}
		}
		return nil
	})
}

// SwitchToDraft clicks the "Switch to draft" button.
func (s *SettingsSidebar) SwitchToDraft(ctx context.Context) error {
	return Within(ctx, "switch to draft", s.timeout, func(ctx context.Context) error {
		return s.surface.Click(ctx, SelectorSwitchToDraft)
	})
}
