package chromedp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/easel/pkg/ports"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	backend "github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// ErrPageClosed is returned by every operation on a closed page.
var ErrPageClosed = errors.New("page closed")

type dialogListener struct {
	accept bool
	fired  chan error
}

// Page is a Chrome tab.
type Page struct {
	tab    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	poll   time.Duration
	slowMo *rate.Limiter
	doc    *Surface

	mu     sync.Mutex
	armed  []*dialogListener
	closed bool
}

var _ ports.Page = (*Page)(nil)

func newPage(tab context.Context, cancel context.CancelFunc, logger *slog.Logger, poll, slowMo time.Duration) *Page {
	p := &Page{
		tab:    tab,
		cancel: cancel,
		logger: logger,
		poll:   poll,
		slowMo: pacer(slowMo),
	}
	p.doc = &Surface{page: p, id: "document"}
	return p
}

// bind derives a tab context that ends with ctx.
func (p *Page) bind(ctx context.Context) (context.Context, func(), error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, nil, ErrPageClosed
	}
	tctx, cancel := context.WithCancel(p.tab)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}, nil
}

// run executes actions on the tab until they finish or ctx is done.
func (p *Page) run(ctx context.Context, actions ...backend.Action) error {
	tctx, release, err := p.bind(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = backend.Run(tctx, actions...)
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

// poller returns a limiter for one polled wait.
func (p *Page) poller() *rate.Limiter {
	return rate.NewLimiter(rate.Every(p.poll), 1)
}

// Navigate loads url and reports the main document response.
func (p *Page) Navigate(ctx context.Context, url string) (*ports.Response, error) {
	return p.respond(ctx, backend.Navigate(url))
}

// Reload reloads the current document.
func (p *Page) Reload(ctx context.Context) (*ports.Response, error) {
	return p.respond(ctx, backend.Reload())
}

func (p *Page) respond(ctx context.Context, action backend.Action) (*ports.Response, error) {
	tctx, release, err := p.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	r, err := backend.RunResponse(tctx, action)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil || r == nil {
		return nil, err
	}
	return &ports.Response{URL: r.URL, Status: int(r.Status)}, nil
}

// URL returns the current top-level URL.
func (p *Page) URL(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, backend.Location(&url))
	return url, err
}

// WaitForURL polls the top-level URL until it matches pattern.
func (p *Page) WaitForURL(ctx context.Context, pattern *regexp.Regexp) (string, error) {
	lim := p.poller()
	for {
		url, err := p.URL(ctx)
		if err != nil {
			return "", err
		}
		if pattern.MatchString(url) {
			return url, nil
		}
		if err := lim.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for url %s: %w", pattern, err)
		}
	}
}

// Document returns the top-level document.
func (p *Page) Document() ports.Surface {
	return p.doc
}

// Frame waits for an iframe matching selector and returns its document.
func (p *Page) Frame(ctx context.Context, selector string) (ports.Surface, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, backend.Nodes(selector, &nodes, backend.ByQuery)); err != nil {
		return nil, fmt.Errorf("waiting for frame %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("frame %q not found", selector)
	}
	iframe := nodes[0]
	id := "frame:" + selector
	if iframe.FrameID != "" {
		id = "frame:" + string(iframe.FrameID)
	}
	return &Surface{page: p, id: id, iframe: iframe}, nil
}

func (p *Page) listenDialogs() {
	backend.ListenTarget(p.tab, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); !ok {
			return
		}
		p.mu.Lock()
		if len(p.armed) == 0 {
			p.mu.Unlock()
			p.logger.Warn("dialog opened with no listener armed")
			return
		}
		l := p.armed[0]
		p.armed = p.armed[1:]
		p.mu.Unlock()

		// Protocol calls cannot be made from the listener itself.
		go func() {
			l.fired <- backend.Run(p.tab, page.HandleJavaScriptDialog(l.accept))
			close(l.fired)
		}()
	})
}

// OnceDialog arms a listener for the next dialog.
func (p *Page) OnceDialog(accept bool) (ports.DialogWaiter, func()) {
	l := &dialogListener{accept: accept, fired: make(chan error, 1)}
	p.mu.Lock()
	p.armed = append(p.armed, l)
	p.mu.Unlock()

	wait := func(ctx context.Context) error {
		select {
		case err := <-l.fired:
			return err
		case <-ctx.Done():
			p.disarm(l)
			select {
			case err, ok := <-l.fired:
				if ok {
					return err
				}
			default:
			}
			return ctx.Err()
		}
	}
	return wait, func() { p.disarm(l) }
}

func (p *Page) disarm(l *dialogListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = slices.DeleteFunc(p.armed, func(a *dialogListener) bool { return a == l })
}

// Close closes the tab. Closing twice is a no-op.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return nil
}
