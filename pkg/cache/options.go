package cache

import (
	"time"
)

// Option is a function that configures a Config.
//
// Option 是一个配置Config的函数。
type Option func(*Config)

// WithMaxEntryCount sets the maximum number of entries in the cache.
// If set to 0, there is no limit on the number of entries.
//
// WithMaxEntryCount 设置缓存中的最大条目数。
// 如果设置为0，则条目数量没有限制。
func WithMaxEntryCount(count int) Option {
	return func(c *Config) {
		c.MaxEntries = count
	}
}

// WithTTL sets the default time-to-live for cache entries.
//
// WithTTL 设置缓存条目的默认生存时间。
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.DefaultTTL = ttl
	}
}

// WithEviction sets the eviction policy.
// Valid values: "lru", "fifo"
//
// WithEviction 设置淘汰策略。
// 有效值："lru"、"fifo"
func WithEviction(policy string) Option {
	return func(c *Config) {
		c.EvictionPolicy = policy
	}
}

// WithCleanupInterval sets the interval for cleaning up expired entries.
//
// WithCleanupInterval 设置清理过期条目的间隔。
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.CleanupInterval = interval
	}
}
