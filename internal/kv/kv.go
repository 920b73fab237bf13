// Package kv provides the string-keyed durable store behind the local product
// records and carts. Backends: memory, file, badger and redis.
package kv

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
)

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("kv: store is closed")

// Store is a synchronous string-keyed get/set/remove interface.
// Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg configs.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "memory", "":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Dir)
	case "badger":
		return OpenBadger(BadgerConfig{Path: cfg.Dir, SyncWrites: true, Logger: logger})
	case "redis":
		return NewRedis(context.Background(), RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", cfg.Backend)
	}
}
