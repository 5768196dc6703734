package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickcart/backend/internal/domain/shared"
)

const defaultKeyPrefix = "quickcart:verified:"

// RedisReplayGuard records processed payment verifications in redis so a
// replayed callback can be answered without re-running side effects.
type RedisReplayGuard struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisReplayGuard connects to redis and pings it to fail fast on a bad
// address.
func NewRedisReplayGuard(addr, password string, db int) (*RedisReplayGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisReplayGuardWithClient(client), nil
}

// NewRedisReplayGuardWithClient wraps an existing client. Useful for tests
// and shared connection pools.
func NewRedisReplayGuardWithClient(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{client: client, keyPrefix: defaultKeyPrefix}
}

// MarkProcessed records the key with a TTL. Returns false when the key was
// already present, meaning another request won the race.
func (g *RedisReplayGuard) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// IsProcessed reports whether the key has been recorded and has not expired
func (g *RedisReplayGuard) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := g.client.Exists(ctx, g.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Close releases the underlying redis connection
func (g *RedisReplayGuard) Close() error {
	return g.client.Close()
}

// InMemoryReplayGuard is a process-local fallback used when redis is not
// configured. Entries expire lazily on read.
type InMemoryReplayGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewInMemoryReplayGuard creates an empty in-memory guard
func NewInMemoryReplayGuard() *InMemoryReplayGuard {
	return &InMemoryReplayGuard{entries: make(map[string]time.Time)}
}

// MarkProcessed records the key, returning false if a live entry exists
func (g *InMemoryReplayGuard) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.entries[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	g.entries[key] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live entry exists for the key
func (g *InMemoryReplayGuard) IsProcessed(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(g.entries, key)
		return false, nil
	}
	return true, nil
}

var (
	_ shared.ReplayGuard = (*RedisReplayGuard)(nil)
	_ shared.ReplayGuard = (*InMemoryReplayGuard)(nil)
)
