package cache

import (
	"fmt"
	"time"
)

// Config defines the configuration options for a cache instance.
//
// Config 定义缓存实例的配置选项。
type Config struct {
	// Name of the cache instance, used for logging
	// 缓存实例的名称，用于日志记录
	Name string `json:"name" yaml:"name"`

	// MaxEntries is the maximum number of entries the cache can hold
	// If set to 0, there is no limit on the number of entries
	//
	// MaxEntries 是缓存可以容纳的最大条目数
	// 如果设置为0，则条目数量没有限制
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// DefaultTTL is the default time-to-live for cache entries
	// If set to 0, entries don't expire by default
	//
	// DefaultTTL 是缓存条目的默认生存时间
	// 如果设置为0，则条目默认不过期
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// EvictionPolicy determines which items to evict when the cache is full
	// Valid values: "lru", "fifo"
	//
	// EvictionPolicy 决定当缓存已满时要淘汰哪些项目
	// 有效值："lru"、"fifo"
	EvictionPolicy string `json:"eviction_policy" yaml:"eviction_policy"`

	// CleanupInterval is the interval at which expired items are cleaned up
	// If set to 0, expired entries are only dropped lazily on access
	//
	// CleanupInterval 是清理过期项目的时间间隔
	// 如果设置为0，过期条目只在访问时被惰性删除
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// NewDefaultConfig returns a Config with sensible default values.
//
// NewDefaultConfig 返回具有合理默认值的Config。
func NewDefaultConfig() *Config {
	return &Config{
		Name:            "shopfront",
		MaxEntries:      1000,
		DefaultTTL:      time.Minute,
		EvictionPolicy:  "lru",
		CleanupInterval: time.Minute,
	}
}

// Validate checks if the configuration is valid.
//
// Validate 检查配置是否有效。
//
// Returns:
//   - error: An error if the configuration is invalid, nil otherwise
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cache name cannot be empty")
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max entries must be non-negative")
	}

	// Validate eviction policy
	// 验证淘汰策略
	switch c.EvictionPolicy {
	case "lru", "fifo":
	default:
		return fmt.Errorf("invalid eviction policy: %s", c.EvictionPolicy)
	}

	if c.CleanupInterval != 0 && c.CleanupInterval < 10*time.Millisecond {
		return fmt.Errorf("cleanup interval must be 0 or at least 10ms")
	}
	return nil
}
