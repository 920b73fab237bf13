// Package cache provides a small thread-safe in-memory TTL cache.
// The storefront uses it to keep recent catalog responses and to hold
// per-visitor query sessions between requests.
//
// Package cache 提供一个小型线程安全的内存TTL缓存。
// 店面使用它来保存最近的目录响应，并在请求之间保存每个访问者的查询会话。
package cache

import (
	"context"
	"time"
)

// ICache defines the interface for the cache.
// All methods are thread-safe and can be called concurrently.
//
// ICache 定义缓存的接口。
// 所有方法都是线程安全的，可以并发调用。
type ICache interface {
	// Get retrieves a value from the cache.
	// If the key is not found or has expired, (nil, false, nil) is returned.
	//
	// Get 从缓存中检索值。
	// 如果未找到键或键已过期，则返回 (nil, false, nil)。
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - key: The key to retrieve
	//
	// Returns:
	//   - interface{}: The cached value if found
	//   - bool: True if the key was found and is valid
	//   - error: Error if the cache is closed
	Get(ctx context.Context, key string) (interface{}, bool, error)

	// Set adds a value to the cache with the specified TTL.
	// If ttl is 0, the default TTL from the configuration is used.
	// If ttl is negative, the entry does not expire.
	//
	// Set 将值添加到缓存中，并指定TTL。
	// 如果ttl为0，则使用配置中的默认TTL。
	// 如果ttl为负数，则条目不会过期。
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Returns true if the key was found and removed.
	//
	// Delete 从缓存中删除值。
	// 如果找到并删除了键，则返回true。
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePrefix removes every key that starts with prefix and returns how many were removed.
	//
	// DeletePrefix 删除所有以prefix开头的键，并返回删除的数量。
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Clear removes all values from the cache.
	//
	// Clear 删除缓存中的所有值。
	Clear(ctx context.Context) error

	// Stats returns statistics about the cache.
	//
	// Stats 返回有关缓存的统计信息。
	Stats(ctx context.Context) (*Stats, error)

	// Close stops background cleanup and releases all entries.
	// After calling Close, every other method returns ErrClosed.
	//
	// Close 停止后台清理并释放所有条目。
	// 调用Close后，其他所有方法都返回ErrClosed。
	Close() error
}

// Stats represents cache statistics.
//
// Stats 表示缓存统计信息。
type Stats struct {
	// EntryCount is the current number of entries in the cache
	// EntryCount 是缓存中当前的条目数量
	EntryCount int64 `json:"entry_count"`

	// Hits is the number of successful cache retrievals
	// Hits 是成功的缓存检索次数
	Hits int64 `json:"hits"`

	// Misses is the number of cache retrievals where the key was not found
	// Misses 是未找到键的缓存检索次数
	Misses int64 `json:"misses"`

	// Evictions is the number of entries removed due to capacity constraints
	// Evictions 是由于容量限制而删除的条目数
	Evictions int64 `json:"evictions"`

	// Expirations is the number of entries removed because their TTL elapsed
	// Expirations 是由于TTL到期而删除的条目数
	Expirations int64 `json:"expirations"`
}

// HitRatio returns hits / (hits + misses), or 0 when nothing was looked up.
//
// HitRatio 返回 hits / (hits + misses)，未进行任何查找时返回0。
func (s *Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
