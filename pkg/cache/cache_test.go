package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestSetGetDelete covers the basic lifecycle of a key.
//
// TestSetGetDelete 覆盖键的基本生命周期。
func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewWithOptions("test", WithCleanupInterval(0))
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", 1, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	v, ok, err := c.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v; want hit", v, ok, err)
	}
	if v.(int) != 1 {
		t.Errorf("Expected value 1, got %v", v)
	}

	deleted, err := c.Delete(ctx, "a")
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v; want true", deleted, err)
	}
	deleted, _ = c.Delete(ctx, "a")
	if deleted {
		t.Error("Expected second Delete() to report false")
	}

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("Expected miss after delete")
	}

	stats, _ := c.Stats(ctx)
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %+v", stats)
	}
}

// TestExpiration verifies that entries with a TTL disappear and negative TTL never expires.
//
// TestExpiration 验证带TTL的条目会消失，负TTL永不过期。
func TestExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewWithOptions("ttl", WithTTL(time.Hour), WithCleanupInterval(0))
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	defer c.Close()

	_ = c.Set(ctx, "short", "x", 10*time.Millisecond)
	_ = c.Set(ctx, "forever", "y", -1)

	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("Expected short-lived entry to expire")
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("Expected entry with negative TTL to remain")
	}
}

// TestEviction checks LRU and FIFO victims when the cache is full.
//
// TestEviction 检查缓存满时LRU和FIFO的淘汰对象。
func TestEviction(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		policy  string
		evicted string
		kept    string
	}{
		{"lru", "b", "a"},
		{"fifo", "a", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			c, err := NewWithOptions("evict", WithMaxEntryCount(2), WithEviction(tt.policy), WithCleanupInterval(0))
			if err != nil {
				t.Fatalf("NewWithOptions() error = %v", err)
			}
			defer c.Close()

			_ = c.Set(ctx, "a", 1, 0)
			_ = c.Set(ctx, "b", 2, 0)
			// Touch "a" so LRU prefers "b".
			_, _, _ = c.Get(ctx, "a")
			_ = c.Set(ctx, "c", 3, 0)

			if _, ok, _ := c.Get(ctx, tt.evicted); ok {
				t.Errorf("Expected %q to be evicted", tt.evicted)
			}
			if _, ok, _ := c.Get(ctx, tt.kept); !ok {
				t.Errorf("Expected %q to be kept", tt.kept)
			}
			stats, _ := c.Stats(ctx)
			if stats.Evictions != 1 {
				t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
			}
		})
	}
}

func TestDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := NewWithOptions("prefix", WithCleanupInterval(0))
	defer c.Close()

	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("page:%d", i), i, 0)
	}
	_ = c.Set(ctx, "categories", []string{"a"}, 0)

	n, err := c.DeletePrefix(ctx, "page:")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 removed, got %d", n)
	}
	if _, ok, _ := c.Get(ctx, "categories"); !ok {
		t.Error("Expected unrelated key to survive")
	}
}

func TestClosedCache(t *testing.T) {
	ctx := context.Background()
	c, _ := NewWithOptions("closed", WithCleanupInterval(20*time.Millisecond))
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if err := c.Set(ctx, "a", 1, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, _, err := c.Get(ctx, "a"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// TestConfigValidate verifies configuration validation rules.
//
// TestConfigValidate 验证配置校验规则。
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"empty name", func(c *Config) { c.Name = "" }, true},
		{"negative entries", func(c *Config) { c.MaxEntries = -1 }, true},
		{"unknown policy", func(c *Config) { c.EvictionPolicy = "random" }, true},
		{"tiny cleanup", func(c *Config) { c.CleanupInterval = time.Millisecond }, true},
		{"no cleanup", func(c *Config) { c.CleanupInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
