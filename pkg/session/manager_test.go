package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	if fn := args.Get(0); fn != nil {
		return fn.(ports.UnlockFunc), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestManager_WithLease_Serializes(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var (
		active  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLease(ctx, "e2e-simple-site", func(ctx context.Context) error {
				if active.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(2 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "two holders of the same lease ran together")
	assert.Empty(t, mgr.leases, "entries are released")
}

func TestManager_WithLease_DistinctKeysRunTogether(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	inside := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- mgr.WithLease(ctx, "site-a", func(ctx context.Context) error {
			<-inside
			return nil
		})
	}()

	err := mgr.WithLease(ctx, "site-b", func(ctx context.Context) error {
		close(inside)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func TestManager_WithLease_WaitHonoursContext(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	held := make(chan struct{})
	releaseHolder := make(chan struct{})

	go func() {
		_ = mgr.WithLease(context.Background(), "busy", func(ctx context.Context) error {
			close(held)
			<-releaseHolder
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := mgr.WithLease(ctx, "busy", func(ctx context.Context) error {
		t.Fatal("lease granted while held")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(releaseHolder)
}

func TestManager_DistributedLease(t *testing.T) {
	ctx := context.Background()

	t.Run("Locks And Unlocks", func(t *testing.T) {
		unlocked := false
		locker := new(mockLocker)
		locker.On("Lock", mock.Anything, "account", time.Minute).
			Return(ports.UnlockFunc(func(context.Context) error { unlocked = true; return nil }), nil)

		mgr := NewManager(memory.NewStore(), WithLocker(locker), WithLeaseTTL(time.Minute))
		ran := false
		require.NoError(t, mgr.WithLease(ctx, "account", func(ctx context.Context) error {
			ran = true
			return nil
		}))

		assert.True(t, ran)
		assert.True(t, unlocked)
		locker.AssertExpectations(t)
	})

	t.Run("Lock Failure Skips Work", func(t *testing.T) {
		locker := new(mockLocker)
		locker.On("Lock", mock.Anything, "account", DefaultLeaseTTL).Return(nil, fmt.Errorf("redis down"))

		mgr := NewManager(memory.NewStore(), WithLocker(locker))
		err := mgr.WithLease(ctx, "account", func(ctx context.Context) error {
			t.Fatal("work ran without the lease")
			return nil
		})
		assert.ErrorContains(t, err, "redis down")
	})
}

func TestManager_Records(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	record := domain.NewRunRecord("run-1", "publish-quote")
	require.NoError(t, mgr.Save(ctx, record))

	loaded, err := mgr.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "publish-quote", loaded.Scenario)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	require.NoError(t, mgr.Delete(ctx, "run-1"))
	_, err = mgr.Load(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestManager_LeaseLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		record := domain.NewRunRecord(fmt.Sprintf("run-%d", i), "leak")
		_ = mgr.Save(ctx, record)
		_ = mgr.Delete(ctx, record.ID)
	}
	assert.Empty(t, mgr.leases, "lease entries leaked")
}
