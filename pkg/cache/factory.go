package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrClosed is returned when an operation is performed on a closed cache.
//
// 当对已关闭的缓存执行操作时返回ErrClosed。
var ErrClosed = errors.New("cache: cache is closed")

// basicCache is a simple in-memory cache implementation
//
// basicCache 是一个简单的内存缓存实现
type basicCache struct {
	name       string
	items      map[string]*cacheItem
	mu         sync.Mutex
	config     *Config
	stats      Stats
	defaultTTL time.Duration
	clock      uint64
	closed     bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// cacheItem represents a single item in the cache with its value and expiration time
//
// cacheItem 表示缓存中的单个项目及其值和过期时间
type cacheItem struct {
	value      interface{}
	expiration time.Time
	inserted   uint64
	accessed   uint64
}

func (it *cacheItem) expired(now time.Time) bool {
	return !it.expiration.IsZero() && now.After(it.expiration)
}

// New creates a new cache instance with the provided configuration.
// If config is nil, default configuration will be used.
//
// New 创建一个具有提供的配置的新缓存实例。
// 如果config为nil，将使用默认配置。
//
// Parameters:
//   - config: The configuration to use for the cache
//
// Returns:
//   - ICache: The created cache instance
//   - error: An error if the configuration is invalid
func New(config *Config) (ICache, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	c := &basicCache{
		name:       config.Name,
		items:      make(map[string]*cacheItem),
		config:     config,
		defaultTTL: config.DefaultTTL,
	}

	if config.CleanupInterval > 0 {
		c.stopCh = make(chan struct{})
		c.doneCh = make(chan struct{})
		go c.cleanupLoop(config.CleanupInterval)
	}

	return c, nil
}

// NewWithOptions creates a new cache instance with the provided options.
//
// NewWithOptions 创建一个具有提供的选项的新缓存实例。
//
// Parameters:
//   - name: The name of the cache instance
//   - options: A list of option functions to configure the cache
//
// Returns:
//   - ICache: The created cache instance
//   - error: An error if the cache creation fails
func NewWithOptions(name string, options ...Option) (ICache, error) {
	config := NewDefaultConfig()
	config.Name = name

	// Apply all options
	// 应用所有选项
	for _, option := range options {
		option(config)
	}

	return New(config)
}

// Get retrieves a value from the cache.
//
// Get 从缓存中检索值。
func (c *basicCache) Get(ctx context.Context, key string) (interface{}, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrClosed
	}

	item, found := c.items[key]
	if !found {
		c.stats.Misses++
		return nil, false, nil
	}

	// Check if the item has expired
	// 检查项目是否已过期
	if item.expired(time.Now()) {
		delete(c.items, key)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false, nil
	}

	c.clock++
	item.accessed = c.clock
	c.stats.Hits++
	return item.value, true, nil
}

// Set adds a value to the cache with the specified TTL.
//
// Set 将值添加到缓存中，并指定TTL。
func (c *basicCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	// Use the provided TTL, or the default if not specified
	// 使用提供的TTL，如果未指定则使用默认值
	expiration := time.Time{}
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	} else if ttl == 0 && c.defaultTTL > 0 {
		expiration = time.Now().Add(c.defaultTTL)
	}

	c.clock++
	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.expiration = expiration
		existing.accessed = c.clock
		return nil
	}

	if c.config.MaxEntries > 0 && len(c.items) >= c.config.MaxEntries {
		c.evictLocked()
	}

	c.items[key] = &cacheItem{
		value:      value,
		expiration: expiration,
		inserted:   c.clock,
		accessed:   c.clock,
	}
	return nil
}

// Delete removes a value from the cache.
//
// Delete 从缓存中删除值。
func (c *basicCache) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	if _, exists := c.items[key]; !exists {
		return false, nil
	}
	delete(c.items, key)
	return true, nil
}

// DeletePrefix removes all keys with the given prefix.
//
// DeletePrefix 删除所有具有给定前缀的键。
func (c *basicCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes all values from the cache.
//
// Clear 删除缓存中的所有值。
func (c *basicCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.items = make(map[string]*cacheItem)
	return nil
}

// Stats returns statistics about the cache.
//
// Stats 返回有关缓存的统计信息。
func (c *basicCache) Stats(ctx context.Context) (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Create a copy of the stats to avoid concurrent modification
	// 创建统计信息的副本以避免并发修改
	statsCopy := c.stats
	statsCopy.EntryCount = int64(len(c.items))
	return &statsCopy, nil
}

// Close cleans up resources used by the cache.
//
// Close 清理缓存使用的资源。
func (c *basicCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.items = make(map[string]*cacheItem)
	c.mu.Unlock()

	if c.stopCh != nil {
		close(c.stopCh)
		<-c.doneCh
	}
	return nil
}

// evictLocked removes one entry according to the eviction policy.
// Expired entries are dropped first. The caller must hold c.mu.
//
// evictLocked 根据淘汰策略删除一个条目。
// 优先删除过期条目。调用者必须持有c.mu。
func (c *basicCache) evictLocked() {
	if c.purgeExpiredLocked(time.Now()) > 0 {
		return
	}

	var victim string
	var oldest uint64
	first := true
	for key, item := range c.items {
		rank := item.accessed
		if c.config.EvictionPolicy == "fifo" {
			rank = item.inserted
		}
		if first || rank < oldest {
			victim, oldest, first = key, rank, false
		}
	}
	if !first {
		delete(c.items, victim)
		c.stats.Evictions++
	}
}

func (c *basicCache) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	c.stats.Expirations += int64(removed)
	return removed
}

func (c *basicCache) cleanupLoop(interval time.Duration) {
	defer close(c.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.purgeExpiredLocked(now)
			c.mu.Unlock()
		}
	}
}
