package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/shopfront/configs"
)

const testRedisAddr = "localhost:6379"

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"file": func(t *testing.T) Store {
			s, err := NewFile(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger(BadgerConfig{InMemory: true})
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				client.Close()
				t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
			}
			return NewRedisFromClient(client, fmt.Sprintf("shopfront-test:%d:", time.Now().UnixNano()))
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, found, err := s.Get(ctx, "shopfront.localProducts")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Set(ctx, "shopfront.localProducts", `[{"id":1}]`))
			v, found, err := s.Get(ctx, "shopfront.localProducts")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `[{"id":1}]`, v)

			require.NoError(t, s.Set(ctx, "shopfront.localProducts", `[]`))
			v, _, _ = s.Get(ctx, "shopfront.localProducts")
			assert.Equal(t, `[]`, v)

			require.NoError(t, s.Remove(ctx, "shopfront.localProducts"))
			require.NoError(t, s.Remove(ctx, "shopfront.localProducts"), "remove is idempotent")
			_, found, _ = s.Get(ctx, "shopfront.localProducts")
			assert.False(t, found)

			require.NoError(t, s.Close())
			require.NoError(t, s.Close(), "close is idempotent")
			assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrClosed)
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "shopfront.cart.guest/1", "x"))
	require.NoError(t, s.Close())

	s2, err := NewFile(dir)
	require.NoError(t, err)
	v, found, err := s2.Get(ctx, "shopfront.cart.guest/1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", v)
}

func TestBadgerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadger(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "persisted"))
	require.NoError(t, s.Close())

	s2, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer s2.Close()
	v, found, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", v)
}

func TestOpen(t *testing.T) {
	cfg := configs.DefaultConfig().Store

	s, err := Open(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	cfg.Backend = "file"
	cfg.Dir = t.TempDir()
	s, err = Open(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	cfg.Backend = "etcd"
	_, err = Open(cfg, nil)
	assert.Error(t, err)
}
