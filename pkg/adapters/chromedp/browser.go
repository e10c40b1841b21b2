// Package chromedp drives a real Chrome through the DevTools protocol.
package chromedp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	backend "github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// DefaultPollInterval paces the waits the protocol has no event for.
const DefaultPollInterval = 100 * time.Millisecond

// Viewport sizes in CSS pixels.
var viewportSizes = map[domain.Viewport][2]int64{
	domain.ViewportDesktop: {1920, 1080},
	domain.ViewportMobile:  {390, 844},
}

// Browser is a ports.Browser backed by one Chrome process.
type Browser struct {
	logger   *slog.Logger
	headless bool
	execPath string
	remote   string
	slowMo   time.Duration
	poll     time.Duration
	extra    []backend.ExecAllocatorOption

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	pages []*Page
}

var _ ports.Browser = (*Browser)(nil)

// Option configures a Browser.
type Option func(*Browser)

// WithLogger sets the logger browser events are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

// WithHeadless toggles headless mode. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithExecPath sets the Chrome binary.
func WithExecPath(path string) Option {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithRemote attaches to a running Chrome at a DevTools websocket URL instead of launching one.
func WithRemote(url string) Option {
	return func(b *Browser) {
		b.remote = url
	}
}

// WithSlowMo spaces every interaction (click, fill, key press) by at least d.
func WithSlowMo(d time.Duration) Option {
	return func(b *Browser) {
		b.slowMo = d
	}
}

// WithPollInterval sets how often polled conditions are re-checked.
func WithPollInterval(d time.Duration) Option {
	return func(b *Browser) {
		b.poll = d
	}
}

// WithAllocatorOptions appends raw launcher flags.
func WithAllocatorOptions(opts ...backend.ExecAllocatorOption) Option {
	return func(b *Browser) {
		b.extra = append(b.extra, opts...)
	}
}

// NewBrowser starts (or attaches to) Chrome. The browser lives until Close or
// until ctx is done.
func NewBrowser(ctx context.Context, opts ...Option) (*Browser, error) {
	b := &Browser{
		logger:   logging.NewNop(),
		headless: true,
		poll:     DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}

	var (
		alloc       context.Context
		cancelAlloc context.CancelFunc
	)
	if b.remote != "" {
		alloc, cancelAlloc = backend.NewRemoteAllocator(ctx, b.remote)
	} else {
		alloc, cancelAlloc = backend.NewExecAllocator(ctx, b.allocatorOptions()...)
	}
	browserCtx, cancelBrowser := backend.NewContext(alloc,
		backend.WithLogf(func(format string, args ...any) { b.logger.Debug(fmt.Sprintf(format, args...)) }),
		backend.WithErrorf(func(format string, args ...any) { b.logger.Warn(fmt.Sprintf(format, args...)) }),
	)
	b.ctx = browserCtx
	b.cancel = func() {
		cancelBrowser()
		cancelAlloc()
	}

	// The first Run launches the process.
	if err := backend.Run(browserCtx); err != nil {
		b.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	b.logger.Info("browser started", "headless", b.headless, "remote", b.remote != "")
	return b, nil
}

func (b *Browser) allocatorOptions() []backend.ExecAllocatorOption {
	opts := append([]backend.ExecAllocatorOption{}, backend.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		backend.Flag("headless", b.headless),
		// Keep editor iframes in the page process so their documents can be queried.
		backend.Flag("disable-features", "IsolateOrigins,site-per-process"),
	)
	if b.execPath != "" {
		opts = append(opts, backend.ExecPath(b.execPath))
	}
	return append(opts, b.extra...)
}

// NewPage opens a tab emulating the requested viewport.
func (b *Browser) NewPage(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
	size, ok := viewportSizes[opts.Viewport]
	if !ok {
		size = viewportSizes[domain.ViewportDesktop]
	}
	tab, cancel := backend.NewContext(b.ctx)
	p := newPage(tab, cancel, b.logger, b.poll, b.slowMo)

	emulate := []backend.EmulateViewportOption{}
	if opts.Viewport.IsCompact() {
		emulate = append(emulate, backend.EmulateMobile, backend.EmulateTouch)
	}
	if err := p.run(ctx, backend.EmulateViewport(size[0], size[1], emulate...)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	p.listenDialogs()

	b.mu.Lock()
	b.pages = append(b.pages, p)
	b.mu.Unlock()
	return p, nil
}

// Close closes every tab and stops the browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	pages := b.pages
	b.pages = nil
	b.mu.Unlock()
	for _, p := range pages {
		_ = p.Close(context.Background())
	}
	b.cancel()
	return nil
}

// pacer returns a limiter spacing events by d. A zero d never waits.
func pacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
