// Package loader provides read-through helpers that fill a cache from a slow
// back source (the remote catalog) when a lookup misses.
//
// Package loader 提供读穿透辅助工具，在查找未命中时从慢速回源（远程目录）填充缓存。
package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yourusername/shopfront/pkg/cache"
)

// Loader is the interface that wraps the basic Load method.
//
// Load retrieves data for the given key from a data source.
// It returns the loaded value, a TTL for the cache entry, and any error encountered.
// If the returned TTL is zero, the cache's default TTL will be used.
//
// Loader 是包装基本Load方法的接口。
//
// Load 从数据源检索给定键的数据。
// 它返回加载的值、缓存条目的TTL以及遇到的任何错误。
// 如果返回的TTL为零，将使用缓存的默认TTL。
type Loader[T any] interface {
	Load(ctx context.Context, key string) (value T, ttl time.Duration, err error)
}

// LoaderFunc is a function type that implements the Loader interface.
//
// LoaderFunc 是实现Loader接口的函数类型。
type LoaderFunc[T any] func(ctx context.Context, key string) (T, time.Duration, error)

// Load calls the function itself.
//
// Load 调用函数本身。
func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, time.Duration, error) {
	return f(ctx, key)
}

// NewFunctionLoader creates a new Loader from a function that retrieves data.
// The TTL will be set to the default.
//
// NewFunctionLoader 从检索数据的函数创建一个新的Loader。TTL将设置为默认值。
func NewFunctionLoader[T any](fn func(ctx context.Context, key string) (T, error)) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context, key string) (T, time.Duration, error) {
		value, err := fn(ctx, key)
		return value, 0, err
	})
}

// ReadThrough serves values from a cache and falls back to the backend on a miss.
// Concurrent misses for the same key share one backend call, which is not
// cancelled when one of the waiting callers gives up. Errors are never cached.
//
// ReadThrough 从缓存提供值，未命中时回退到后端。
// 同一键的并发未命中共享一次后端调用，某个等待的调用者放弃时该调用不会被取消。错误永远不会被缓存。
type ReadThrough[T any] struct {
	backend Loader[T]
	cache   cache.ICache
	prefix  string
	group   singleflight.Group
}

// NewReadThrough creates a ReadThrough over the given cache.
// All keys are stored under prefix so several loaders can share one cache.
//
// NewReadThrough 在给定缓存上创建ReadThrough。
// 所有键都存储在prefix下，以便多个加载器可以共享一个缓存。
//
// Parameters:
//   - backend: The loader consulted on a miss
//   - c: The cache holding loaded values
//   - prefix: Key prefix inside the cache
//
// Returns:
//   - *ReadThrough[T]: The read-through loader
func NewReadThrough[T any](backend Loader[T], c cache.ICache, prefix string) *ReadThrough[T] {
	return &ReadThrough[T]{backend: backend, cache: c, prefix: prefix}
}

// Load returns the cached value for key, loading it from the backend on a miss.
//
// Load 返回key的缓存值，未命中时从后端加载。
func (r *ReadThrough[T]) Load(ctx context.Context, key string) (T, time.Duration, error) {
	var zero T
	full := r.prefix + key

	if v, ok, err := r.cache.Get(ctx, full); err == nil && ok {
		if typed, ok := v.(T); ok {
			return typed, 0, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(full, func() (interface{}, error) {
		value, ttl, err := r.backend.Load(detached, key)
		if err != nil {
			return nil, err
		}
		if setErr := r.cache.Set(detached, full, value, ttl); setErr != nil {
			return value, fmt.Errorf("loader: cache set %s: %w", full, setErr)
		}
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		// The shared load keeps running for the other callers.
		// 共享加载会继续为其他调用者运行。
		return zero, 0, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil && res.Val == nil {
		return zero, 0, res.Err
	}
	// A value that loaded but could not be cached is still served.
	// 已加载但无法缓存的值仍然返回。
	return res.Val.(T), 0, nil
}

// Invalidate drops every cached entry of this loader.
//
// Invalidate 删除此加载器的所有缓存条目。
func (r *ReadThrough[T]) Invalidate(ctx context.Context) error {
	_, err := r.cache.DeletePrefix(ctx, r.prefix)
	return err
}
