package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/easel/pkg/adapters/chromedp"
	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/adapters/redis"
	"github.com/aretw0/easel/pkg/persistence/middleware"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/scenario"
	"github.com/aretw0/easel/pkg/session"
	goredis "github.com/redis/go-redis/v9"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Browser backends.
const (
	BrowserChrome = "chrome"
	BrowserMemory = "memory" // scripted editor served at memory.EditorURL
)

// EnvOptions selects the adapters a command runs scenarios with.
type EnvOptions struct {
	Store    string
	StoreDir string
	RedisURL string
	LeaseTTL time.Duration

	// EncryptionKey seals stored records (32 bytes, base64 or hex).
	EncryptionKey string
	// Redact lists patterns of output keys and step actions masked before storage.
	Redact []string

	Browser  string
	Headless bool
	ExecPath string
	Remote   string
	SlowMo   time.Duration
}

// Environment is a scenario runner wired to its store and browser.
type Environment struct {
	Runner   *scenario.Runner
	Sessions *session.Manager

	closers []func() error
}

// NewEnvironment opens the store and browser selected by opts.
// Close releases them.
func NewEnvironment(ctx context.Context, opts EnvOptions, logger *slog.Logger, runnerOpts ...scenario.Option) (*Environment, error) {
	env := &Environment{}

	store, sessionOpts, err := env.openStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	sessionOpts = append(sessionOpts, session.WithLogger(logger))
	if opts.LeaseTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLeaseTTL(opts.LeaseTTL))
	}
	env.Sessions = session.NewManager(store, sessionOpts...)

	browser, err := env.openBrowser(ctx, opts, logger)
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	runnerOpts = append([]scenario.Option{scenario.WithLogger(logger)}, runnerOpts...)
	env.Runner = scenario.NewRunner(browser, env.Sessions, runnerOpts...)
	return env, nil
}

// OpenStore opens the run store selected by opts, without a browser.
func OpenStore(ctx context.Context, opts EnvOptions) (ports.RunStore, func() error, error) {
	env := &Environment{}
	store, _, err := env.openStore(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return store, env.Close, nil
}

func (e *Environment) openStore(ctx context.Context, opts EnvOptions) (ports.RunStore, []session.Option, error) {
	store, sessionOpts, err := e.openBackend(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(opts.Redact)
		if err != nil {
			_ = e.Close()
			return nil, nil, fmt.Errorf("invalid redact pattern: %w", err)
		}
		mws = append(mws, redact)
	}
	if opts.EncryptionKey != "" {
		key, err := middleware.ParseKey(opts.EncryptionKey)
		if err != nil {
			_ = e.Close()
			return nil, nil, err
		}
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = e.Close()
			return nil, nil, err
		}
		mws = append(mws, seal)
	}
	return middleware.Chain(store, mws...), sessionOpts, nil
}

func (e *Environment) openBackend(ctx context.Context, opts EnvOptions) (ports.RunStore, []session.Option, error) {
	switch opts.Store {
	case "", StoreFile:
		return file.New(opts.StoreDir), nil, nil
	case StoreMemory:
		return memory.NewStore(), nil, nil
	case StoreRedis:
		if opts.RedisURL == "" {
			return nil, nil, errors.New("--redis-url is required with the redis store")
		}
		redisOpts, err := goredis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := goredis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		store := redis.NewFromClient(client)
		e.closers = append(e.closers, store.Close)
		locker := redis.NewLocker(client, "easel:")
		return store, []session.Option{session.WithLocker(locker)}, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q (expected memory, file or redis)", opts.Store)
}

func (e *Environment) openBrowser(ctx context.Context, opts EnvOptions, logger *slog.Logger) (ports.Browser, error) {
	switch opts.Browser {
	case BrowserMemory:
		return memory.EditorBrowser(), nil
	case "", BrowserChrome:
		browserOpts := []chromedp.Option{
			chromedp.WithLogger(logger),
			chromedp.WithHeadless(opts.Headless),
			chromedp.WithSlowMo(opts.SlowMo),
		}
		if opts.ExecPath != "" {
			browserOpts = append(browserOpts, chromedp.WithExecPath(opts.ExecPath))
		}
		if opts.Remote != "" {
			browserOpts = append(browserOpts, chromedp.WithRemote(opts.Remote))
		}
		// The browser outlives the command context so that in-flight runs can record their end.
		b, err := chromedp.NewBrowser(context.WithoutCancel(ctx), browserOpts...)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, b.Close)
		return b, nil
	}
	return nil, fmt.Errorf("unknown browser %q (expected chrome or memory)", opts.Browser)
}

// Close releases the browser and the store.
func (e *Environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}
