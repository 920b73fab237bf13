package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/shopfront/pkg/cache"
)

func newTestCache(t *testing.T) cache.ICache {
	t.Helper()
	c, err := cache.NewWithOptions("loader-test", cache.WithCleanupInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestReadThroughCachesValue(t *testing.T) {
	var calls int32
	backend := NewFunctionLoader(func(ctx context.Context, key string) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"beauty", key}, nil
	})
	rt := NewReadThrough[[]string](backend, newTestCache(t), "cat:")

	for i := 0; i < 3; i++ {
		v, _, err := rt.Load(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"beauty", "x"}, v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReadThroughDoesNotCacheErrors(t *testing.T) {
	var calls int32
	boom := errors.New("boom")
	backend := NewFunctionLoader(func(ctx context.Context, key string) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, boom
		}
		return 7, nil
	})
	rt := NewReadThrough[int](backend, newTestCache(t), "n:")

	_, _, err := rt.Load(context.Background(), "k")
	assert.ErrorIs(t, err, boom)

	v, _, err := rt.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestReadThroughCoalescesConcurrentMisses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	backend := NewFunctionLoader(func(ctx context.Context, key string) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	})
	rt := NewReadThrough[int](backend, newTestCache(t), "n:")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := rt.Load(context.Background(), "same")
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReadThroughCallerCancelDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	backend := NewFunctionLoader(func(ctx context.Context, key string) (int, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	rt := NewReadThrough[int](backend, newTestCache(t), "n:")

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := rt.Load(ctx, "same")
		firstErr <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		v, _, err := rt.Load(context.Background(), "same")
		assert.NoError(t, err)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, 42, <-second)
}

func TestReadThroughInvalidate(t *testing.T) {
	var calls int32
	backend := NewFunctionLoader(func(ctx context.Context, key string) (int32, error) {
		return atomic.AddInt32(&calls, 1), nil
	})
	c := newTestCache(t)
	rt := NewReadThrough[int32](backend, c, "n:")
	ctx := context.Background()

	_ = c.Set(ctx, "other", "keep", 0)

	v, _, _ := rt.Load(ctx, "k")
	assert.Equal(t, int32(1), v)
	require.NoError(t, rt.Invalidate(ctx))
	v, _, _ = rt.Load(ctx, "k")
	assert.Equal(t, int32(2), v)

	_, ok, _ := c.Get(ctx, "other")
	assert.True(t, ok)
}
