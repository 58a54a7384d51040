package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	store, err := NewRedisStore(config.RedisConfig{Address: mini.Addr(), PoolSize: 2, MaxRetries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mini
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	memory := NewMemoryStore()
	t.Cleanup(func() { memory.Close() })

	redisStore, _ := newRedisStore(t)

	return map[string]Store{
		"memory": memory,
		"redis":  redisStore,
	}
}

func TestStorePutAndTake(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			login := auth.PendingLogin{State: "s1", CodeVerifier: "v1", CreatedAt: time.Now().UTC().Truncate(time.Second)}

			require.NoError(t, store.Put(ctx, login, time.Minute))

			got, err := store.Take(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, login.State, got.State)
			assert.Equal(t, login.CodeVerifier, got.CodeVerifier)
			assert.True(t, login.CreatedAt.Equal(got.CreatedAt))

			_, err = store.Take(ctx, "s1")
			assert.ErrorIs(t, err, ErrNotFound, "pending logins are single use")
		})
	}
}

func TestStoreUnknownState(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Take(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, store.Ping(context.Background()))
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, auth.PendingLogin{State: "s1"}, -time.Second))

	_, err := store.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, auth.PendingLogin{State: "s2"}, -time.Second))
	store.cleanup()
	store.mu.Lock()
	assert.Empty(t, store.data)
	store.mu.Unlock()
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mini := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, auth.PendingLogin{State: "s1"}, time.Minute))
	mini.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	store, err := New(config.CacheConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = New(config.CacheConfig{Type: "redis"})
	assert.Error(t, err)

	_, err = New(config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)
}
