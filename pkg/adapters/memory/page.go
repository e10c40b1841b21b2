package memory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"

	"github.com/aretw0/easel/pkg/ports"
)

// ErrPageClosed is returned by operations on a closed page.
var ErrPageClosed = errors.New("page closed")

// DocumentID is the ID of every page's top-level document.
const DocumentID = "document"

// FrameID returns the ID of the sub-document attached under selector.
func FrameID(selector string) string {
	return "frame:" + selector
}

// Route answers a navigation to a URL.
type Route func(p *Page, url string) (*ports.Response, error)

// PageOption configures a Page.
type PageOption func(*Page)

// WithURL sets the initial URL.
func WithURL(url string) PageOption {
	return func(p *Page) { p.url = url }
}

// WithElements seeds the top-level document.
func WithElements(elements map[string]Element) PageOption {
	return func(p *Page) {
		for sel, el := range elements {
			p.doc.Set(sel, el)
		}
	}
}

// WithRoute answers navigations to url.
func WithRoute(url string, r Route) PageOption {
	return func(p *Page) { p.routes[url] = r }
}

// WithFallbackRoute answers navigations matching no route. The default answers 200.
func WithFallbackRoute(r Route) PageOption {
	return func(p *Page) { p.fallback = r }
}

type dialogListener struct {
	accept bool
	fired  chan struct{}
}

// Page is a scripted browser tab. Safe for concurrent use.
type Page struct {
	doc *Surface

	mu       sync.Mutex
	url      string
	frames   map[string]*Surface
	routes   map[string]Route
	fallback Route
	visits   []string
	armed    []*dialogListener
	dialogs  []bool
	closed   bool
	changed  chan struct{}
}

var _ ports.Page = (*Page)(nil)

// NewPage creates a page on about:blank.
func NewPage(opts ...PageOption) *Page {
	p := &Page{
		doc:     NewSurface(DocumentID),
		url:     "about:blank",
		frames:  make(map[string]*Surface),
		routes:  make(map[string]Route),
		changed: make(chan struct{}),
		fallback: func(_ *Page, url string) (*ports.Response, error) {
			return &ports.Response{URL: url, Status: 200}, nil
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// notify wakes every waiter. Callers hold p.mu.
func (p *Page) notify() {
	close(p.changed)
	p.changed = make(chan struct{})
}

// SetURL changes the current URL without a navigation.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.notify()
}

// AttachFrame mounts a sub-document under selector and returns it.
func (p *Page) AttachFrame(selector string) *Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.frames[selector]
	if !ok {
		s = NewSurface(FrameID(selector))
		p.frames[selector] = s
	}
	p.notify()
	return s
}

// DetachFrame unmounts the sub-document under selector.
func (p *Page) DetachFrame(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.frames, selector)
	p.notify()
}

// Visits returns the URLs navigated to, including reloads.
func (p *Page) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

// RaiseDialog opens a dialog. It is handled by the oldest armed listener and
// reports whether one was armed.
func (p *Page) RaiseDialog() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.armed) == 0 {
		return false
	}
	l := p.armed[0]
	p.armed = p.armed[1:]
	p.dialogs = append(p.dialogs, l.accept)
	close(l.fired)
	return true
}

// Dialogs returns the decisions taken on raised dialogs, in order.
func (p *Page) Dialogs() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.dialogs...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) navigate(ctx context.Context, url string) (*ports.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPageClosed
	}
	route, ok := p.routes[url]
	if !ok {
		route = p.fallback
	}
	p.visits = append(p.visits, url)
	p.url = url
	p.notify()
	p.mu.Unlock()

	return route(p, url)
}

// Navigate loads url through its route.
func (p *Page) Navigate(ctx context.Context, url string) (*ports.Response, error) {
	return p.navigate(ctx, url)
}

// Reload navigates to the current URL again.
func (p *Page) Reload(ctx context.Context) (*ports.Response, error) {
	p.mu.Lock()
	url := p.url
	p.mu.Unlock()
	return p.navigate(ctx, url)
}

// URL returns the current URL.
func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPageClosed
	}
	return p.url, nil
}

// WaitForURL blocks until the current URL matches pattern.
func (p *Page) WaitForURL(ctx context.Context, pattern *regexp.Regexp) (string, error) {
	for {
		p.mu.Lock()
		url := p.url
		changed := p.changed
		p.mu.Unlock()
		if pattern.MatchString(url) {
			return url, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for url %s: %w", pattern, ctx.Err())
		case <-changed:
		}
	}
}

// Document returns the top-level document.
func (p *Page) Document() ports.Surface {
	return p.doc
}

// Doc returns the top-level document as a scriptable surface.
func (p *Page) Doc() *Surface {
	return p.doc
}

// Frame blocks until a sub-document is attached under selector.
func (p *Page) Frame(ctx context.Context, selector string) (ports.Surface, error) {
	for {
		p.mu.Lock()
		s, ok := p.frames[selector]
		changed := p.changed
		p.mu.Unlock()
		if ok {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for frame %q: %w", selector, ctx.Err())
		case <-changed:
		}
	}
}

// OnceDialog arms a listener for the next raised dialog.
func (p *Page) OnceDialog(accept bool) (ports.DialogWaiter, func()) {
	l := &dialogListener{accept: accept, fired: make(chan struct{})}
	p.mu.Lock()
	p.armed = append(p.armed, l)
	p.mu.Unlock()

	wait := func(ctx context.Context) error {
		select {
		case <-l.fired:
			return nil
		case <-ctx.Done():
			p.disarm(l)
			select {
			case <-l.fired:
				return nil
			default:
				return ctx.Err()
			}
		}
	}
	return wait, func() { p.disarm(l) }
}

// Armed returns the number of dialog listeners waiting for a dialog.
func (p *Page) Armed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.armed)
}

func (p *Page) disarm(l *dialogListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = slices.DeleteFunc(p.armed, func(a *dialogListener) bool { return a == l })
}

// Close marks the page closed.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.notify()
	return nil
}

// Browser hands out scripted pages.
type Browser struct {
	mu      sync.Mutex
	factory func(opts ports.PageOptions) *Page
	pages   []*Page
}

var _ ports.Browser = (*Browser)(nil)

// NewBrowser creates a browser building pages with factory.
// A nil factory yields blank pages.
func NewBrowser(factory func(opts ports.PageOptions) *Page) *Browser {
	if factory == nil {
		factory = func(ports.PageOptions) *Page { return NewPage() }
	}
	return &Browser{factory: factory}
}

// NewPage opens a page.
func (b *Browser) NewPage(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := b.factory(opts)
	b.mu.Lock()
	b.pages = append(b.pages, p)
	b.mu.Unlock()
	return p, nil
}

// Pages returns every page opened so far.
func (b *Browser) Pages() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.pages...)
}
