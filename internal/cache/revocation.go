package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkpress/internal/middleware"
	"inkpress/internal/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"

	revocationKeyPrefix = "blacklist:"
)

// RevocationStore records revoked token ids (jti) until the token would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
	Backend() string
}

// RevocationKey returns the Redis key used for a revoked jti.
func RevocationKey(jti string) string {
	return revocationKeyPrefix + jti
}

// NewRevocationStore picks the Redis store when rdb is connected and the in-memory store otherwise.
// The choice is made once and logged; it does not change while the process runs.
func NewRevocationStore(rdb *redis.Client, tokenTTL time.Duration) RevocationStore {
	var store RevocationStore
	if rdb != nil {
		store = NewRedisRevocationStore(rdb)
	} else {
		store = NewMemoryRevocationStore(tokenTTL)
	}
	middleware.Logger.Info("Token revocation store selected", slog.String("backend", store.Backend()))
	return store
}

// RedisRevocationStore keeps revoked ids as `blacklist:<jti>` keys with a TTL.
type RedisRevocationStore struct {
	rdb *redis.Client
}

// NewRedisRevocationStore returns a Redis-backed revocation store.
func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, RevocationKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	observability.TokenRevocations.WithLabelValues(BackendRedis).Inc()
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, RevocationKey(jti)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

func (s *RedisRevocationStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisRevocationStore) Backend() string { return BackendRedis }

// MemoryRevocationStore keeps revoked ids in process memory. Entries live for the full token
// lifetime, which covers the remaining life of any token revoked after issue.
type MemoryRevocationStore struct {
	entries *expirable.LRU[string, time.Time]
}

// NewMemoryRevocationStore returns an unbounded in-memory store whose entries expire after tokenTTL.
func NewMemoryRevocationStore(tokenTTL time.Duration) *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: expirable.NewLRU[string, time.Time](0, nil, tokenTTL),
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.entries.Add(jti, time.Now().Add(ttl))
	observability.TokenRevocations.WithLabelValues(BackendMemory).Inc()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	until, ok := s.entries.Get(jti)
	if !ok {
		return false, nil
	}
	if !time.Now().Before(until) {
		// The token itself has expired; drop it before the store-wide TTL does.
		s.entries.Remove(jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryRevocationStore) Ping(context.Context) error { return nil }

func (s *MemoryRevocationStore) Backend() string { return BackendMemory }

// Len reports the number of live entries.
func (s *MemoryRevocationStore) Len() int {
	return s.entries.Len()
}
