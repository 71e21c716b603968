package motivation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one cached message and the local day key it was generated on.
type Entry struct {
	Value             string `json:"value"`
	GeneratedOnDayKey string `json:"generatedOnDayKey"`
}

// IsStale reports whether the entry belongs to a day other than today.
func (e Entry) IsStale(today string) bool {
	return e.Value == "" || e.GeneratedOnDayKey != today
}

// Cache stores at most one entry per user.
type Cache interface {
	Get(ctx context.Context, userID string) (Entry, bool, error)
	Put(ctx context.Context, userID string, e Entry) error
}

// MemoryCache is a process-local cache. Concurrent writers race with
// last-write-wins.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (m *MemoryCache) Get(_ context.Context, userID string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[userID]
	return e, ok, nil
}

func (m *MemoryCache) Put(_ context.Context, userID string, e Entry) error {
	m.mu.Lock()
	m.entries[userID] = e
	m.mu.Unlock()
	return nil
}

// RedisCache shares entries between API replicas. Keys expire after two days
// so stale entries do not accumulate.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "motivation:", ttl: 48 * time.Hour}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *RedisCache) Put(ctx context.Context, userID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+userID, raw, r.ttl).Err()
}
