package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/panel"
	"github.com/aretw0/easel/pkg/ports"
)

// Defaults of the scripted editor.
const (
	EditorFrameSelector = "iframe.is-loaded"
	EditorURL           = "https://wordpress.com/post/example.wordpress.com"
	AdminEditorURL      = "https://example.wordpress.com/wp-admin/post-new.php"
	PublishedURL        = "https://example.wordpress.com/2026/10/19/hello-world/"
	ExitURL             = "https://wordpress.com/posts/example.wordpress.com"
)

// EditorConfig scripts the behaviour of an EditorPage.
type EditorConfig struct {
	URL             string
	Framed          bool
	Viewport        domain.Viewport
	DocumentKind    string // panel.KindPost or panel.KindPage
	WelcomeGuide    bool
	PrePublishPanel bool

	// ToastURL and PanelURL are the published URL as shown by the snackbar link
	// and by the post-publish panel. An empty value never shows that signal.
	ToastURL   string
	PanelURL   string
	ToastDelay time.Duration
	PanelDelay time.Duration

	// NotFoundVisits is the number of visits to the published URL answered with 404.
	NotFoundVisits int

	ExitURL    string
	Categories []string

	// TitleTransform and TextTransform alter what the editor stores on entry.
	// Titles are trimmed by default.
	TitleTransform func(string) string
	TextTransform  func(string) string

	// SilentRevert suppresses the "reverted to draft" notice.
	SilentRevert bool
}

// EditorOption configures an EditorPage.
type EditorOption func(*EditorConfig)

// WithUnframed serves the editor from the administrative interface, without an iframe.
func WithUnframed() EditorOption {
	return func(c *EditorConfig) {
		c.Framed = false
		c.URL = AdminEditorURL
	}
}

// WithViewport sets the layout the editor renders.
func WithViewport(v domain.Viewport) EditorOption {
	return func(c *EditorConfig) { c.Viewport = v }
}

// WithDocumentKind sets the kind of document edited.
func WithDocumentKind(kind string) EditorOption {
	return func(c *EditorConfig) { c.DocumentKind = kind }
}

// WithWelcomeGuide shows the onboarding overlay on load.
func WithWelcomeGuide() EditorOption {
	return func(c *EditorConfig) { c.WelcomeGuide = true }
}

// WithPrePublishPanel requires confirming publication in the publish panel.
func WithPrePublishPanel() EditorOption {
	return func(c *EditorConfig) { c.PrePublishPanel = true }
}

// WithPublishSignals sets which signals reveal the published URL and when.
func WithPublishSignals(toastURL string, toastDelay time.Duration, panelURL string, panelDelay time.Duration) EditorOption {
	return func(c *EditorConfig) {
		c.ToastURL, c.ToastDelay = toastURL, toastDelay
		c.PanelURL, c.PanelDelay = panelURL, panelDelay
	}
}

// WithNotFoundVisits answers the first n visits of the published URL with 404.
func WithNotFoundVisits(n int) EditorOption {
	return func(c *EditorConfig) { c.NotFoundVisits = n }
}

// WithExitURL sets where leaving the editor lands.
func WithExitURL(url string) EditorOption {
	return func(c *EditorConfig) { c.ExitURL = url }
}

// WithTitleTransform alters titles as they are stored.
func WithTitleTransform(fn func(string) string) EditorOption {
	return func(c *EditorConfig) { c.TitleTransform = fn }
}

// WithTextTransform alters paragraphs as they are stored.
func WithTextTransform(fn func(string) string) EditorOption {
	return func(c *EditorConfig) { c.TextTransform = fn }
}

// WithSilentRevert never shows the "reverted to draft" notice.
func WithSilentRevert() EditorOption {
	return func(c *EditorConfig) { c.SilentRevert = true }
}

func identity(s string) string { return s }

// EditorPage is a Page serving a scripted block editor at its editor URL.
type EditorPage struct {
	*Page
	cfg     EditorConfig
	surface *Surface

	mu          sync.Mutex
	active      *Element
	lastSearch  string
	schedule    bool
	device      string
	visibility  string
	publishedAt int
}

// NewEditorPage creates a page whose editor loads on navigation to the editor URL.
func NewEditorPage(opts ...EditorOption) *EditorPage {
	cfg := EditorConfig{
		URL:            EditorURL,
		Framed:         true,
		Viewport:       domain.ViewportDesktop,
		DocumentKind:   panel.KindPost,
		ToastURL:       PublishedURL,
		ExitURL:        ExitURL,
		Categories:     []string{"Uncategorized", "Quotes"},
		TitleTransform: strings.TrimSpace,
		TextTransform:  identity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &EditorPage{cfg: cfg, visibility: "Public"}
	e.Page = NewPage(
		WithRoute(cfg.URL, e.load),
		WithFallbackRoute(e.visit),
	)
	if cfg.Framed {
		e.surface = NewSurface(FrameID(EditorFrameSelector))
	} else {
		e.surface = e.Page.Doc()
	}
	return e
}

// EditorBrowser returns a browser handing out editor pages in the requested viewport.
func EditorBrowser(opts ...EditorOption) *Browser {
	return NewBrowser(func(po ports.PageOptions) *Page {
		all := append([]EditorOption{WithViewport(po.Viewport)}, opts...)
		return NewEditorPage(all...).Page
	})
}

// Address returns the URL the editor is served at.
func (e *EditorPage) Address() string {
	return e.cfg.URL
}

// Editor returns the surface hosting the editor UI.
func (e *EditorPage) Editor() *Surface {
	return e.surface
}

// PreviewDevice returns the last device picked in the desktop preview menu.
func (e *EditorPage) PreviewDevice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

func (e *EditorPage) compact() bool {
	return e.cfg.Viewport.IsCompact()
}

// load mounts the editor UI.
func (e *EditorPage) load(p *Page, url string) (*ports.Response, error) {
	if e.cfg.Framed {
		p.mu.Lock()
		p.frames[EditorFrameSelector] = e.surface
		p.notify()
		p.mu.Unlock()
	}
	e.mount()
	return &ports.Response{URL: url, Status: 200}, nil
}

// visit answers navigations away from the editor.
func (e *EditorPage) visit(p *Page, url string) (*ports.Response, error) {
	if e.cfg.Framed {
		p.DetachFrame(EditorFrameSelector)
	}
	if url != e.cfg.ToastURL && url != e.cfg.PanelURL {
		return &ports.Response{URL: url, Status: 200}, nil
	}
	e.mu.Lock()
	e.publishedAt++
	missing := e.publishedAt <= e.cfg.NotFoundVisits
	e.mu.Unlock()
	if missing {
		p.doc.Show(panel.SelectorNotFound)
		return &ports.Response{URL: url, Status: 404}, nil
	}
	p.doc.Remove(panel.SelectorNotFound)
	return &ports.Response{URL: url, Status: 200}, nil
}

func (e *EditorPage) mount() {
	s := e.surface
	s.Set(panel.SelectorTitle, Element{})
	s.Set(panel.SelectorAppender, Element{})
	s.Set(panel.SelectorInserterToggle, Element{})
	s.Set(panel.SelectorPublishButton, Element{Text: "Publish"})
	s.Set(panel.SelectorSaveDraft, Element{Text: "Save draft"})
	s.Set(panel.SelectorSettingsToggle, Element{})
	s.Set(panel.SelectorPreviewButton, Element{Text: "Preview"})
	s.Set(panel.SelectorNavToggle, Element{})
	if e.cfg.WelcomeGuide {
		s.Set(panel.SelectorWelcomeGuide, Element{})
	}

	s.OnEvaluate(e.evaluate)
	s.OnFill(panel.SelectorTitle, func(s *Surface, text string) error {
		s.SetText(panel.SelectorTitle, e.cfg.TitleTransform(text))
		return nil
	})
	s.OnClick(panel.SelectorTitle, func(s *Surface) error {
		e.deselect()
		return nil
	})
	s.OnClick(panel.SelectorAppender, func(s *Surface) error {
		e.newParagraph()
		return nil
	})
	s.OnFill(panel.SelectorParagraphActive, func(s *Surface, text string) error {
		e.mu.Lock()
		active := e.active
		e.mu.Unlock()
		if active == nil {
			return fmt.Errorf("no block selected")
		}
		s.update(active, func(el *Element) { el.Text = e.cfg.TextTransform(text) })
		return nil
	})
	s.OnPress("Enter", e.pressEnter)
	s.OnPress("Escape", e.pressEscape)

	e.mountInserter()
	e.mountPublish()
	e.mountSettings()
	e.mountPreview()
	e.mountNav()

	s.OnClick(panel.SelectorSaveDraft, func(s *Surface) error {
		s.Set(panel.SelectorSavedState, Element{Text: "Saved"})
		return nil
	})
}

func (e *EditorPage) evaluate(s *Surface, script string) (any, error) {
	if !strings.Contains(script, "welcomeGuide") {
		return nil, fmt.Errorf("unexpected script")
	}
	if n, _ := s.countVisible(panel.SelectorWelcomeGuide); n == 0 {
		return false, nil
	}
	s.Hide(panel.SelectorWelcomeGuide)
	return true, nil
}

func (e *EditorPage) deselect() {
	e.mu.Lock()
	e.active = nil
	e.mu.Unlock()
	e.surface.Remove(panel.SelectorParagraphActive)
}

func (e *EditorPage) newParagraph() {
	p := e.surface.add(panel.SelectorParagraph, Element{})
	e.mu.Lock()
	e.active = p
	e.mu.Unlock()
	e.surface.Set(panel.SelectorParagraphActive, Element{})
}

func (e *EditorPage) pressEnter(s *Surface) error {
	switch s.Focused() {
	case panel.SelectorParagraphActive:
		e.newParagraph()
	case panel.SelectorTagInput:
		tag := s.value(panel.SelectorTagInput)
		if tag != "" {
			s.Append(panel.SelectorTagToken, Element{Text: tag})
			s.SetAttr(panel.SelectorTagInput, "value", "")
		}
	}
	return nil
}

var scheduleFields = []string{
	panel.SelectorScheduleDay,
	panel.SelectorScheduleMonth,
	panel.SelectorScheduleYear,
	panel.SelectorScheduleHours,
	panel.SelectorScheduleMinutes,
}

func (e *EditorPage) pressEscape(s *Surface) error {
	n, _ := s.countVisible(panel.SelectorScheduleDay)
	if n == 0 {
		return nil
	}
	var parts []string
	for _, f := range scheduleFields {
		parts = append(parts, s.value(f))
		s.Remove(f)
	}
	if parts[0] == "" {
		return nil
	}
	at, err := time.Parse("2-01-2006-15-04", strings.Join(parts, "-"))
	if err != nil {
		return nil
	}
	s.SetText(panel.SelectorScheduleToggle, at.Format("January 2, 2006 3:04 pm"))
	s.SetText(panel.SelectorPublishButton, "Schedule…")
	e.mu.Lock()
	e.schedule = true
	e.mu.Unlock()
	return nil
}

func (e *EditorPage) mountInserter() {
	s := e.surface
	s.OnClick(panel.SelectorInserterToggle, func(s *Surface) error {
		if n, _ := s.countVisible(panel.SelectorInserterMenu); n > 0 {
			s.Remove(panel.SelectorInserterMenu)
			s.Remove(panel.SelectorInserterSearch)
			return nil
		}
		s.Set(panel.SelectorInserterMenu, Element{})
		s.Set(panel.SelectorInserterSearch, Element{})
		return nil
	})
	s.OnFill(panel.SelectorInserterSearch, func(s *Surface, text string) error {
		e.mu.Lock()
		e.lastSearch = text
		e.mu.Unlock()
		s.Set(panel.SelectorInserterResult, Element{Text: text})
		return nil
	})
	s.OnClick(panel.SelectorInserterResult, func(s *Surface) error {
		e.mu.Lock()
		name := e.lastSearch
		e.mu.Unlock()
		s.Append(BlockSelector(name), Element{})
		s.Remove(panel.SelectorInserterResult)
		if e.compact() {
			s.Remove(panel.SelectorInserterMenu)
			s.Remove(panel.SelectorInserterSearch)
		}
		return nil
	})
}

// BlockSelector is where the scripted editor renders an inserted block.
func BlockSelector(name string) string {
	return fmt.Sprintf(`[aria-label="Block: %s"]`, name)
}

func (e *EditorPage) mountPublish() {
	s := e.surface
	s.OnClick(panel.SelectorPublishButton, func(s *Surface) error {
		if e.cfg.PrePublishPanel {
			s.Set(panel.SelectorPublishPanel, Element{})
			s.Set(panel.SelectorPublishPanelConfirm, Element{Text: "Publish"})
			s.Set(panel.SelectorPublishPanelClose, Element{})
			return nil
		}
		e.publish()
		return nil
	})
	s.OnClick(panel.SelectorPublishPanelConfirm, func(s *Surface) error {
		s.Remove(panel.SelectorPublishPanelConfirm)
		e.publish()
		return nil
	})
	s.OnClick(panel.SelectorPublishPanelClose, func(s *Surface) error {
		s.Remove(panel.SelectorPublishPanel)
		s.Remove(panel.SelectorPublishPanelAddress)
		return nil
	})
}

func (e *EditorPage) publish() {
	s := e.surface
	e.mu.Lock()
	scheduled := e.schedule
	e.mu.Unlock()

	s.Set(panel.SelectorSwitchToDraft, Element{Text: "Switch to draft"})
	if scheduled {
		s.Append(panel.SelectorSnackbar, Element{Text: "Post scheduled."})
		return
	}
	after(e.cfg.ToastDelay, func() {
		s.Append(panel.SelectorSnackbar, Element{Text: "Post published."})
		if e.cfg.ToastURL != "" {
			s.Set(panel.SelectorSnackbarLink, Element{Text: "View Post", Attrs: map[string]string{"href": e.cfg.ToastURL}})
		}
	})
	if e.cfg.PanelURL != "" {
		after(e.cfg.PanelDelay, func() {
			s.Set(panel.SelectorPublishPanel, Element{})
			s.Set(panel.SelectorPublishPanelClose, Element{})
			s.Set(panel.SelectorPublishPanelAddress, Element{Attrs: map[string]string{"value": e.cfg.PanelURL}})
		})
	}
}

func after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	time.AfterFunc(d, fn)
}

var sectionContent = map[string][]string{
	panel.SectionSummary:   {panel.SelectorVisibilityToggle, panel.SelectorScheduleToggle},
	panel.SectionTags:      {panel.SelectorTagInput},
	panel.SectionPermalink: {panel.SelectorSlugInput},
}

func (e *EditorPage) mountSettings() {
	s := e.surface
	s.OnClick(panel.SelectorSettingsToggle, func(s *Surface) error {
		if n, _ := s.countVisible(panel.SelectorSettingsSidebar); n > 0 {
			e.closeSettings()
			return nil
		}
		e.openSettings()
		return nil
	})
	s.OnClick(panel.SelectorSettingsClose, func(s *Surface) error {
		e.closeSettings()
		return nil
	})

	sections := []string{panel.SectionSummary, panel.SectionCategories, panel.SectionTags, panel.SectionPermalink}
	for _, name := range sections {
		toggle := panel.SectionToggleSelector(name)
		s.OnClick(toggle, func(s *Surface) error {
			if s.attr(toggle, "aria-expanded") == "true" {
				s.SetAttr(toggle, "aria-expanded", "false")
				return nil
			}
			s.SetAttr(toggle, "aria-expanded", "true")
			e.expand(name)
			return nil
		})
	}

	s.OnClick(panel.SelectorVisibilityToggle, func(s *Surface) error {
		for _, v := range []domain.Visibility{domain.VisibilityPublic, domain.VisibilityPrivate, domain.VisibilityPassword} {
			s.Set(panel.VisibilityOptionSelector(string(v)), Element{})
		}
		return nil
	})
	s.OnClick(panel.VisibilityOptionSelector(string(domain.VisibilityPublic)), func(s *Surface) error {
		e.setVisibility("Public")
		return nil
	})
	s.OnClick(panel.VisibilityOptionSelector(string(domain.VisibilityPrivate)), func(s *Surface) error {
		if e.raiseDialog() {
			e.setVisibility("Private")
		}
		return nil
	})
	s.OnClick(panel.VisibilityOptionSelector(string(domain.VisibilityPassword)), func(s *Surface) error {
		s.Set(panel.SelectorVisibilityPassword, Element{})
		return nil
	})
	s.OnFill(panel.SelectorVisibilityPassword, func(s *Surface, text string) error {
		if text != "" {
			e.setVisibility("Password protected")
		}
		return nil
	})

	s.OnClick(panel.SelectorScheduleToggle, func(s *Surface) error {
		for _, f := range scheduleFields {
			s.Set(f, Element{})
		}
		return nil
	})

	for _, name := range e.cfg.Categories {
		selector := panel.CategorySelector(name)
		s.OnClick(selector, func(s *Surface) error {
			if n, _ := s.countVisible(selector + ":checked"); n > 0 {
				s.Remove(selector + ":checked")
				return nil
			}
			s.Set(selector+":checked", Element{})
			return nil
		})
	}

	s.OnClick(panel.SelectorSwitchToDraft, func(s *Surface) error {
		if !e.raiseDialog() {
			return nil
		}
		s.Remove(panel.SelectorSwitchToDraft)
		if !e.cfg.SilentRevert {
			s.Append(panel.SelectorSnackbar, Element{Text: "Post reverted to draft."})
		}
		return nil
	})
}

func (e *EditorPage) raiseDialog() bool {
	if !e.Page.RaiseDialog() {
		return false
	}
	decisions := e.Page.Dialogs()
	return decisions[len(decisions)-1]
}

func (e *EditorPage) setVisibility(label string) {
	e.mu.Lock()
	e.visibility = label
	e.mu.Unlock()
	e.surface.SetText(panel.SelectorVisibilityToggle, label)
	for _, v := range []domain.Visibility{domain.VisibilityPublic, domain.VisibilityPrivate, domain.VisibilityPassword} {
		e.surface.Remove(panel.VisibilityOptionSelector(string(v)))
	}
}

func (e *EditorPage) openSettings() {
	s := e.surface
	s.Set(panel.SelectorSettingsSidebar, Element{})
	s.Set(panel.SelectorSettingsClose, Element{})
	s.Set(panel.DocumentTabSelector(e.cfg.DocumentKind), Element{Text: e.cfg.DocumentKind})
	for _, name := range []string{panel.SectionSummary, panel.SectionCategories, panel.SectionTags, panel.SectionPermalink} {
		s.Set(panel.SectionToggleSelector(name), Element{Text: name, Attrs: map[string]string{"aria-expanded": "false"}})
	}
}

func (e *EditorPage) closeSettings() {
	s := e.surface
	s.Remove(panel.SelectorSettingsSidebar)
	s.Remove(panel.SelectorSettingsClose)
	s.Remove(panel.DocumentTabSelector(e.cfg.DocumentKind))
	for _, name := range []string{panel.SectionSummary, panel.SectionCategories, panel.SectionTags, panel.SectionPermalink} {
		s.Remove(panel.SectionToggleSelector(name))
	}
}

func (e *EditorPage) expand(name string) {
	s := e.surface
	if name == panel.SectionCategories {
		for _, c := range e.cfg.Categories {
			s.Set(panel.CategorySelector(c), Element{Text: c})
		}
		return
	}
	for _, sel := range sectionContent[name] {
		if n, _ := s.countVisible(sel); n > 0 {
			continue
		}
		switch sel {
		case panel.SelectorVisibilityToggle:
			e.mu.Lock()
			label := e.visibility
			e.mu.Unlock()
			s.Set(sel, Element{Text: label})
		case panel.SelectorScheduleToggle:
			s.Set(sel, Element{Text: "Immediately"})
		default:
			s.Set(sel, Element{})
		}
	}
}

func (e *EditorPage) mountPreview() {
	s := e.surface
	s.OnClick(panel.SelectorPreviewButton, func(s *Surface) error {
		if e.compact() {
			e.Page.AttachFrame(panel.SelectorPreviewFrame)
			s.Set(panel.SelectorPreviewClose, Element{})
			return nil
		}
		if n, _ := s.countVisible(panel.SelectorPreviewMenu); n > 0 {
			s.Remove(panel.SelectorPreviewMenu)
			return nil
		}
		s.Set(panel.SelectorPreviewMenu, Element{})
		for _, d := range []domain.PreviewTarget{domain.PreviewDesktop, domain.PreviewTablet, domain.PreviewMobile} {
			device := string(d)
			s.Set(panel.PreviewDeviceSelector(device), Element{Text: device})
			s.OnClick(panel.PreviewDeviceSelector(device), func(s *Surface) error {
				e.mu.Lock()
				e.device = device
				e.mu.Unlock()
				s.Remove(panel.SelectorPreviewMenu)
				for _, d := range []domain.PreviewTarget{domain.PreviewDesktop, domain.PreviewTablet, domain.PreviewMobile} {
					s.Remove(panel.PreviewDeviceSelector(string(d)))
				}
				return nil
			})
		}
		return nil
	})
	s.OnClick(panel.SelectorPreviewClose, func(s *Surface) error {
		e.Page.DetachFrame(panel.SelectorPreviewFrame)
		s.Remove(panel.SelectorPreviewClose)
		return nil
	})
}

func (e *EditorPage) mountNav() {
	s := e.surface
	exit := panel.SelectorNavExit
	if e.compact() {
		exit = panel.SelectorNavExitCompact
	}
	s.OnClick(panel.SelectorNavToggle, func(s *Surface) error {
		s.Set(panel.SelectorNavSidebar, Element{})
		s.Set(panel.SelectorNavDismiss, Element{})
		s.Set(exit, Element{Text: "Dashboard"})
		return nil
	})
	s.OnClick(panel.SelectorNavDismiss, func(s *Surface) error {
		s.Remove(panel.SelectorNavSidebar)
		s.Remove(panel.SelectorNavDismiss)
		s.Remove(exit)
		return nil
	})
	s.OnClick(exit, func(s *Surface) error {
		if e.cfg.Framed {
			e.Page.DetachFrame(EditorFrameSelector)
		}
		e.Page.SetURL(e.cfg.ExitURL)
		return nil
	})
}
