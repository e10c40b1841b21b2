package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// DefaultLeaseTTL bounds how long a distributed lease outlives a crashed holder.
const DefaultLeaseTTL = 10 * time.Minute

// leaseEntry holds the process-local semaphore and its reference count.
type leaseEntry struct {
	sem  chan struct{}
	refs int
}

// Manager serializes access to sessions and run records.
// It reference-counts entries so unused keys are garbage collected.
type Manager struct {
	store ports.RunStore

	mu     sync.Mutex
	leases map[string]*leaseEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed leases.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLeaseTTL sets the TTL of distributed leases.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager persisting run records to store.
func NewManager(store ports.RunStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		leases: make(map[string]*leaseEntry),
		ttl:    DefaultLeaseTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates an entry and increments its reference count.
// Callers must pair it with release.
func (m *Manager) acquire(key string) *leaseEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.leases[key]
	if !ok {
		entry = &leaseEntry{sem: make(chan struct{}, 1)}
		m.leases[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.leases[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.leases, key)
	}
}

// WithLease runs fn while holding the exclusive lease on key.
// Waiting for the lease honours ctx.
func (m *Manager) WithLease(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	defer m.release(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for lease %q: %w", key, ctx.Err())
	}
	defer func() { <-entry.sem }()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lease: %w", err)
		}
		defer func() {
			// The caller context may be done by now; the unlock still has to reach the backend.
			uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlock(uctx); err != nil {
				m.logger.Warn("failed to release distributed lease (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func runKey(runID string) string {
	return "run:" + runID
}

// Save persists a run record.
func (m *Manager) Save(ctx context.Context, record *domain.RunRecord) error {
	return m.WithLease(ctx, runKey(record.ID), func(ctx context.Context) error {
		return m.store.Save(ctx, record)
	})
}

// Load retrieves a run record.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	var record *domain.RunRecord
	err := m.WithLease(ctx, runKey(runID), func(ctx context.Context) error {
		var err error
		record, err = m.store.Load(ctx, runID)
		return err
	})
	return record, err
}

// Delete removes a run record.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLease(ctx, runKey(runID), func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}
