package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNewRevocationStore_SelectsBackend(t *testing.T) {
	_, rdb := newMiniRedis(t)

	assert.Equal(t, BackendRedis, NewRevocationStore(rdb, time.Minute).Backend())
	assert.Equal(t, BackendMemory, NewRevocationStore(nil, time.Minute).Backend())
}

func TestRedisRevocationStore_RevokeSetsKeyWithTTL(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	store := NewRedisRevocationStore(rdb)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "abc", 10*time.Minute))
	assert.True(t, mr.Exists("blacklist:abc"))
	assert.Equal(t, 10*time.Minute, mr.TTL("blacklist:abc"))

	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore_ExpiredTokenIsNoop(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	store := NewRedisRevocationStore(rdb)

	require.NoError(t, store.Revoke(context.Background(), "gone", 0))
	assert.False(t, mr.Exists("blacklist:gone"))
}

func TestRedisRevocationStore_ErrorWhenRedisDown(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	store := NewRedisRevocationStore(rdb)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
	assert.Error(t, store.Revoke(context.Background(), "abc", time.Minute))
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "a", time.Minute))
	require.NoError(t, store.Revoke(ctx, "b", time.Millisecond))

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.Equal(t, 2, store.Len())

	time.Sleep(5 * time.Millisecond)
	revoked, err = store.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked, "entry past its own ttl must not count as revoked")
	assert.Equal(t, 1, store.Len(), "expired entry is dropped on lookup")

	// Non-positive ttls are ignored rather than stored.
	require.NoError(t, store.Revoke(ctx, "c", 0))
	assert.Equal(t, 1, store.Len())

	revoked, err = store.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, store.Ping(ctx))
}
