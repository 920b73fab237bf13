// Package configs provides configuration structures and utilities for the shopfront service.
// It offers mechanisms for loading, validating, and saving configuration from various sources
// including JSON and YAML files. The package defines a configuration structure
// that controls the catalog client, the local stores, pagination and the HTTP surface.
//
// Package configs 提供shopfront服务的配置结构和工具。
// 它提供从各种来源（包括JSON和YAML文件）加载、验证和保存配置的机制。
// 该包定义了控制目录客户端、本地存储、分页和HTTP接口的配置结构。
package configs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the shopfront service.
// Settings are organized into logical sections for different components.
//
// Config 表示shopfront服务的完整配置。
// 设置按不同组件的逻辑部分进行组织。
type Config struct {
	// Server configures the HTTP listener
	// Server 配置HTTP监听器
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// Catalog configures the remote product catalog client
	// Catalog 配置远程产品目录客户端
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`

	// Store selects and configures the durable key-value store
	// Store 选择并配置持久键值存储
	Store StoreConfig `json:"store" yaml:"store" mapstructure:"store"`

	// Pagination controls page sizes
	// Pagination 控制页面大小
	Pagination PaginationConfig `json:"pagination" yaml:"pagination" mapstructure:"pagination"`

	// Cache configures the response cache in front of the catalog
	// Cache 配置目录前面的响应缓存
	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`

	// Auth configures the mock authentication accounts
	// Auth 配置模拟认证账户
	Auth AuthConfig `json:"auth" yaml:"auth" mapstructure:"auth"`

	// Metrics configures Prometheus exposition
	// Metrics 配置Prometheus指标暴露
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// ServerConfig contains settings for the HTTP server.
//
// ServerConfig 包含HTTP服务器的设置。
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Mode            string        `json:"mode" yaml:"mode" mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// SessionTTL is how long an idle browsing session keeps its pagination state
	// SessionTTL 是空闲浏览会话保留其分页状态的时长
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" mapstructure:"session_ttl"`
}

// CatalogConfig contains settings for the remote catalog client.
//
// CatalogConfig 包含远程目录客户端的设置。
type CatalogConfig struct {
	// BaseURL is the root of the catalog API, e.g. https://dummyjson.com
	// BaseURL 是目录API的根地址
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds every outbound request
	// Timeout 限制每个出站请求的时长
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RateLimit is the outbound requests per second (0 = unlimited)
	// RateLimit 是每秒出站请求数（0 = 无限制）
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MirrorWrites enables best-effort mirroring of admin mutations to the catalog
	// MirrorWrites 启用将管理员变更尽力镜像到目录
	MirrorWrites bool   `json:"mirror_writes" yaml:"mirror_writes" mapstructure:"mirror_writes"`
	UserAgent    string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig contains settings for the durable key-value store.
//
// StoreConfig 包含持久键值存储的设置。
type StoreConfig struct {
	// Backend selects the implementation ("memory", "file", "badger", "redis")
	// Backend 选择实现（"memory"、"file"、"badger"、"redis"）
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// ProductsKey is the fixed key holding the local product array
	// ProductsKey 是保存本地产品数组的固定键
	ProductsKey string `json:"products_key" yaml:"products_key" mapstructure:"products_key"`

	// CartKeyPrefix prefixes each owner's cart key
	// CartKeyPrefix 是每个所有者购物车键的前缀
	CartKeyPrefix string `json:"cart_key_prefix" yaml:"cart_key_prefix" mapstructure:"cart_key_prefix"`

	// Dir is the data directory for the file and badger backends
	// Dir 是file和badger后端的数据目录
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	Redis RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// RedisConfig contains the redis connection settings.
//
// RedisConfig 包含redis连接设置。
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password  string `json:"password" yaml:"password" mapstructure:"password"`
	DB        int    `json:"db" yaml:"db" mapstructure:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// PaginationConfig contains page size settings.
//
// PaginationConfig 包含页面大小设置。
type PaginationConfig struct {
	ItemsPerPage    int `json:"items_per_page" yaml:"items_per_page" mapstructure:"items_per_page"`
	MaxItemsPerPage int `json:"max_items_per_page" yaml:"max_items_per_page" mapstructure:"max_items_per_page"`
}

// CacheConfig contains settings for the catalog response cache.
// These settings control capacity limits and expiration policies.
//
// CacheConfig 包含目录响应缓存的设置。
// 这些设置控制容量限制和过期策略。
type CacheConfig struct {
	// Enable determines whether catalog responses are cached
	// Enable 确定是否缓存目录响应
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// Name is the identifier for this cache instance
	// Name 是此缓存实例的标识符
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxEntries is the maximum number of items the cache can hold (0 = unlimited)
	// MaxEntries 是缓存可以容纳的最大项目数（0 = 无限制）
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`

	// DefaultTTL is the time-to-live for cached catalog pages
	// DefaultTTL 是缓存目录页面的生存时间
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// CategoriesTTL is the time-to-live for the cached category list
	// CategoriesTTL 是缓存分类列表的生存时间
	CategoriesTTL time.Duration `json:"categories_ttl" yaml:"categories_ttl" mapstructure:"categories_ttl"`

	// EvictionPolicy is "lru" or "fifo"
	// EvictionPolicy 为"lru"或"fifo"
	EvictionPolicy string `json:"eviction_policy" yaml:"eviction_policy" mapstructure:"eviction_policy"`

	// CleanupInterval is how often expired items are removed
	// CleanupInterval 是清除过期项目的频率
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// AuthConfig contains the mock authentication settings.
//
// AuthConfig 包含模拟认证设置。
type AuthConfig struct {
	TokenTTL time.Duration `json:"token_ttl" yaml:"token_ttl" mapstructure:"token_ttl"`
	Users    []UserConfig  `json:"users" yaml:"users" mapstructure:"users"`
}

// UserConfig is one demo account.
//
// UserConfig 是一个演示账户。
type UserConfig struct {
	Username    string `json:"username" yaml:"username" mapstructure:"username"`
	Password    string `json:"password" yaml:"password" mapstructure:"password"`
	Role        string `json:"role" yaml:"role" mapstructure:"role"`
	DisplayName string `json:"display_name" yaml:"display_name" mapstructure:"display_name"`
}

// MetricsConfig contains settings for metrics collection.
//
// MetricsConfig 包含指标收集的设置。
type MetricsConfig struct {
	// Enable determines whether the metrics endpoint is served
	// Enable 确定是否提供指标端点
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// Path is the HTTP path of the Prometheus endpoint
	// Path 是Prometheus端点的HTTP路径
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig contains settings for logging.
// These settings control the logging behavior, including
// log level, format, and output destination.
//
// LogConfig 包含日志记录的设置。
// 这些设置控制日志行为，包括日志级别、格式和输出目的地。
type LogConfig struct {
	// Level sets the minimum log level ("debug", "info", "warn", "error")
	// Level 设置最低日志级别（"debug"、"info"、"warn"、"error"）
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format specifies the log format ("console", "json")
	// Format 指定日志格式（"console"、"json"）
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output determines where logs are written ("stdout", "stderr", "file")
	// Output 确定日志写入的位置（"stdout"、"stderr"、"file"）
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// FilePath is the path to the log file when Output is "file"
	// FilePath 是当Output为"file"时的日志文件路径
	FilePath string `json:"file_path" yaml:"file_path" mapstructure:"file_path"`
}

// ExtensionsConfig contains settings for extensions.
//
// ExtensionsConfig 包含扩展的设置。
type ExtensionsConfig struct {
	// HotReload contains settings for dynamic configuration reloading
	// HotReload 包含动态配置重新加载的设置
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload" mapstructure:"hot_reload"`
}

// HotReloadConfig contains settings for hot reloading.
//
// HotReloadConfig 包含热重载的设置。
type HotReloadConfig struct {
	// Enable determines whether hot reloading is active
	// Enable 确定是否启用热重载
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// WatchInterval is how often to poll for changes when fsnotify is unavailable (0 = use fsnotify)
	// WatchInterval 是fsnotify不可用时轮询更改的频率（0 = 使用fsnotify）
	WatchInterval time.Duration `json:"watch_interval" yaml:"watch_interval" mapstructure:"watch_interval"`
}

// DefaultConfig returns a new Config with default values.
//
// DefaultConfig 返回具有默认值的新Config。
//
// Returns:
//   - *Config: A new configuration instance with default values
//
// 返回：
//   - *Config: 具有默认值的新配置实例
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SessionTTL:      30 * time.Minute,
		},
		Catalog: CatalogConfig{
			BaseURL:      "https://dummyjson.com",
			Timeout:      12 * time.Second,
			RateLimit:    20,
			Burst:        10,
			MirrorWrites: true,
			UserAgent:    "shopfront/1.0",
		},
		Store: StoreConfig{
			Backend:       "memory",
			ProductsKey:   "shopfront.localProducts",
			CartKeyPrefix: "shopfront.cart.",
			Dir:           "./data",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "shopfront:",
			},
		},
		Pagination: PaginationConfig{
			ItemsPerPage:    12,
			MaxItemsPerPage: 100,
		},
		Cache: CacheConfig{
			Enable:          true,
			Name:            "catalog",
			MaxEntries:      1000,
			DefaultTTL:      time.Minute,
			CategoriesTTL:   10 * time.Minute,
			EvictionPolicy:  "lru",
			CleanupInterval: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			Users: []UserConfig{
				{Username: "admin", Password: "admin123", Role: "admin", DisplayName: "Store Admin"},
				{Username: "emilys", Password: "emilyspass", Role: "customer", DisplayName: "Emily Johnson"},
			},
		},
		Metrics: MetricsConfig{
			Enable: true,
			Path:   "/metrics",
		},
		Log: LogConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "/var/log/shopfront.log",
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable: false,
			},
		},
	}
}

// LoadFromFile loads configuration from a file.
// It supports both YAML and JSON formats, automatically
// detecting the format based on the file extension.
//
// LoadFromFile 从文件加载配置。
// 它支持YAML和JSON格式，根据文件扩展名自动检测格式。
//
// Parameters:
//   - filename: Path to the configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "yaml", "yml", "json":
	default:
		return nil, fmt.Errorf("unsupported configuration file format: .%s", ext)
	}
	return LoadFromReader(file, ext)
}

// LoadFromReader loads configuration from an io.Reader.
// Values absent from the input keep their defaults.
//
// LoadFromReader 从io.Reader加载配置。
// 输入中缺少的值保持默认值。
//
// Parameters:
//   - r: The reader providing the configuration data
//   - format: The format of the data ("json", "yaml", or "yml")
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
// The format is selected by the file extension.
//
// SaveToFile 将配置保存到文件。格式由文件扩展名决定。
func (c *Config) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	case ".json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	default:
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate validates the configuration.
// It checks that all settings have valid values and
// that there are no conflicts or inconsistencies.
//
// Validate 验证配置。
// 它检查所有设置是否具有有效值，并且没有冲突或不一致。
//
// Returns:
//   - error: An error describing the validation failure, or nil if valid
func (c *Config) Validate() error {
	// Validate server settings
	// 验证服务器设置
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}
	if c.Server.SessionTTL < time.Second {
		return fmt.Errorf("server.session_ttl must be at least 1 second")
	}

	// Validate catalog settings
	// 验证目录设置
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog.base_url must be an absolute http(s) URL")
	}
	if c.Catalog.Timeout < time.Second || c.Catalog.Timeout > time.Minute {
		return fmt.Errorf("catalog.timeout must be between 1s and 60s")
	}
	if c.Catalog.RateLimit < 0 {
		return fmt.Errorf("catalog.rate_limit must be non-negative")
	}
	if c.Catalog.RateLimit > 0 && c.Catalog.Burst <= 0 {
		return fmt.Errorf("catalog.burst must be positive when catalog.rate_limit is set")
	}

	// Validate store settings
	// 验证存储设置
	switch c.Store.Backend {
	case "memory":
	case "file", "badger":
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir must be specified when store.backend is '%s'", c.Store.Backend)
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr must be specified when store.backend is 'redis'")
		}
	default:
		return fmt.Errorf("store.backend must be one of: memory, file, badger, redis")
	}
	if c.Store.ProductsKey == "" {
		return fmt.Errorf("store.products_key must not be empty")
	}
	if c.Store.CartKeyPrefix == "" {
		return fmt.Errorf("store.cart_key_prefix must not be empty")
	}

	// Validate pagination settings
	// 验证分页设置
	if c.Pagination.ItemsPerPage <= 0 {
		return fmt.Errorf("pagination.items_per_page must be positive")
	}
	if c.Pagination.MaxItemsPerPage < c.Pagination.ItemsPerPage {
		return fmt.Errorf("pagination.max_items_per_page must be at least pagination.items_per_page")
	}

	// Validate cache settings
	// 验证缓存设置
	if c.Cache.Enable {
		if c.Cache.MaxEntries < 0 {
			return fmt.Errorf("cache.max_entries must be non-negative")
		}
		switch c.Cache.EvictionPolicy {
		case "lru", "fifo":
		default:
			return fmt.Errorf("cache.eviction_policy must be one of: lru, fifo")
		}
		if c.Cache.CleanupInterval != 0 && c.Cache.CleanupInterval < time.Second {
			return fmt.Errorf("cache.cleanup_interval must be at least 1 second")
		}
	}

	// Validate auth settings
	// 验证认证设置
	if c.Auth.TokenTTL < time.Minute {
		return fmt.Errorf("auth.token_ttl must be at least 1 minute")
	}
	seen := make(map[string]bool, len(c.Auth.Users))
	for i, user := range c.Auth.Users {
		if user.Username == "" || user.Password == "" {
			return fmt.Errorf("auth.users[%d] must have a username and password", i)
		}
		if seen[user.Username] {
			return fmt.Errorf("auth.users[%d]: duplicate username %q", i, user.Username)
		}
		seen[user.Username] = true
		switch user.Role {
		case "admin", "customer":
		default:
			return fmt.Errorf("auth.users[%d].role must be one of: admin, customer", i)
		}
	}

	// Validate metrics settings
	// 验证指标设置
	if c.Metrics.Enable && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	// Validate log settings
	// 验证日志设置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be one of: console, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr, file")
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path must be specified when log.output is 'file'")
	}

	// Validate extensions settings
	// 验证扩展设置
	if c.Extensions.HotReload.Enable && c.Extensions.HotReload.WatchInterval != 0 &&
		c.Extensions.HotReload.WatchInterval < time.Second {
		return fmt.Errorf("extensions.hot_reload.watch_interval must be at least 1 second")
	}

	return nil
}
