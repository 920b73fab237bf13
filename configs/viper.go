// Package configs provides configuration structures and utilities for the shopfront service.
// This file implements Viper-based configuration management with environment
// overrides and hot reloading support.
//
// Package configs 提供shopfront服务的配置结构和工具。
// 本文件实现基于Viper的配置管理，支持环境变量覆盖和热重载。
package configs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys,
// e.g. SHOPFRONT_CATALOG_TIMEOUT=5s overrides catalog.timeout.
//
// EnvPrefix 是覆盖配置键的环境变量前缀。
const EnvPrefix = "SHOPFRONT"

// ViperConfig wraps a Config with Viper functionality for hot reloading.
// It provides thread-safe access to configuration and supports dynamic
// updates when the underlying configuration file changes.
//
// ViperConfig 使用Viper功能包装Config以支持热重载。
// 它提供对配置的线程安全访问，并支持在底层配置文件更改时进行动态更新。
type ViperConfig struct {
	config      *Config         // Current configuration / 当前配置
	viper       *viper.Viper    // Viper instance for configuration management / 用于配置管理的Viper实例
	configFile  string          // Path to the configuration file, may be empty / 配置文件路径，可以为空
	logger      *zap.Logger     // Logger for reload events / 重载事件的日志记录器
	mu          sync.RWMutex    // Mutex for thread-safe access / 用于线程安全访问的互斥锁
	subscribers []func(*Config) // List of subscribers to notify on config changes / 配置更改时要通知的订阅者列表
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewViperConfig creates a new ViperConfig.
// Defaults are registered first, then the file (if any) is read, and
// SHOPFRONT_* environment variables override both.
//
// NewViperConfig 创建一个新的ViperConfig。
// 首先注册默认值，然后读取文件（如果有），SHOPFRONT_*环境变量覆盖两者。
//
// Parameters:
//   - configFile: Path to the configuration file, empty for defaults and environment only
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading or validation fails
func NewViperConfig(configFile string) (*ViperConfig, error) {
	v := viper.New()

	if err := registerDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		ext := filepath.Ext(configFile)
		v.SetConfigType(strings.TrimPrefix(ext, "."))

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &ViperConfig{
		config:      config,
		viper:       v,
		configFile:  configFile,
		logger:      zap.NewNop(),
		subscribers: make([]func(*Config), 0),
		stopCh:      make(chan struct{}),
	}, nil
}

// registerDefaults registers every key of DefaultConfig so environment
// variables can override keys absent from the file.
func registerDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	dv := viper.New()
	dv.SetConfigType("yaml")
	if err := dv.ReadConfig(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to read default config: %w", err)
	}
	for _, key := range dv.AllKeys() {
		v.SetDefault(key, dv.Get(key))
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// SetLogger sets the logger used to report reload events.
//
// SetLogger 设置用于报告重载事件的日志记录器。
func (vc *ViperConfig) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	vc.mu.Lock()
	vc.logger = logger
	vc.mu.Unlock()
}

// EnableHotReload enables hot reloading of the configuration file.
// When the configuration file changes, the configuration is automatically
// reloaded and all subscribers are notified. Invalid files are ignored.
//
// EnableHotReload 启用配置文件的热重载。
// 当配置文件更改时，配置会自动重新加载，并通知所有订阅者。无效文件被忽略。
func (vc *ViperConfig) EnableHotReload() {
	if vc.configFile == "" {
		return
	}
	vc.viper.OnConfigChange(func(e fsnotify.Event) {
		vc.log().Info("config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		vc.reload()
	})
	vc.viper.WatchConfig()
}

// EnablePolling re-reads the configuration file every interval.
// It is an alternative to fsnotify for file systems without change notifications.
//
// EnablePolling 每隔interval重新读取配置文件。
// 它是在没有变更通知的文件系统上fsnotify的替代方案。
func (vc *ViperConfig) EnablePolling(interval time.Duration) {
	if vc.configFile == "" || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-vc.stopCh:
				return
			case <-ticker.C:
				if err := vc.viper.ReadInConfig(); err != nil {
					vc.log().Warn("failed to read config file", zap.Error(err))
					continue
				}
				vc.reload()
			}
		}
	}()
}

// reload decodes the current viper state and notifies subscribers if it changed.
func (vc *ViperConfig) reload() {
	newConfig, err := decode(vc.viper)
	if err != nil {
		vc.log().Warn("ignoring config change", zap.Error(err))
		return
	}

	vc.mu.Lock()
	if configsEqual(vc.config, newConfig) {
		vc.mu.Unlock()
		return
	}
	vc.config = newConfig
	subscribers := make([]func(*Config), len(vc.subscribers))
	copy(subscribers, vc.subscribers)
	vc.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(newConfig)
	}
}

func (vc *ViperConfig) log() *zap.Logger {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.logger
}

// Subscribe adds a subscriber that will be notified when the configuration changes.
//
// Subscribe 添加一个在配置更改时将被通知的订阅者。
//
// Parameters:
//   - subscriber: A function to call with the new configuration
func (vc *ViperConfig) Subscribe(subscriber func(*Config)) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.subscribers = append(vc.subscribers, subscriber)
}

// Get returns the current configuration.
// This method is thread-safe and can be called concurrently.
//
// Get 返回当前配置。此方法是线程安全的，可以并发调用。
func (vc *ViperConfig) Get() *Config {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.config
}

// Close stops the polling watcher, if any.
//
// Close 停止轮询监视器（如果有）。
func (vc *ViperConfig) Close() {
	vc.stopOnce.Do(func() { close(vc.stopCh) })
}

// LoadViperConfig loads a configuration using Viper and starts the
// watcher selected by extensions.hot_reload.
//
// LoadViperConfig 使用Viper加载配置，并启动extensions.hot_reload选择的监视器。
//
// Parameters:
//   - configFile: Path to the configuration file, may be empty
//   - logger: Logger for reload events, may be nil
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading fails
func LoadViperConfig(configFile string, logger *zap.Logger) (*ViperConfig, error) {
	vc, err := NewViperConfig(configFile)
	if err != nil {
		return nil, err
	}
	vc.SetLogger(logger)

	hot := vc.Get().Extensions.HotReload
	if hot.Enable {
		if hot.WatchInterval > 0 {
			vc.EnablePolling(hot.WatchInterval)
		} else {
			vc.EnableHotReload()
		}
	}

	return vc, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are skipped.
//
// LoadDotEnv 将给定文件中的KEY=VALUE对加载到进程环境中，
// 不覆盖已设置的变量。缺失的文件被跳过。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// configsEqual checks if two configs are equal by comparing their YAML encodings.
//
// configsEqual 通过比较两个配置的YAML编码来检查它们是否相等。
func configsEqual(c1, c2 *Config) bool {
	b1, err1 := yaml.Marshal(c1)
	b2, err2 := yaml.Marshal(c2)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(b1, b2)
}
