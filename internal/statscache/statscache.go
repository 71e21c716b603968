// Package statscache keeps per-user statistics snapshots in Redis so repeated
// stats reads skip the record scan. Writes invalidate, the worker rebuilds.
package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"attendtrack/internal/attendance"
)

const keyPrefix = "stats:snapshot:"

// Store is a Redis-backed attendance.SnapshotCache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a snapshot store. A zero ttl keeps snapshots for an hour.
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func key(userID string) string { return keyPrefix + userID }

// Get returns the snapshot, or nil when none is stored.
func (s *Store) Get(ctx context.Context, userID string) (*attendance.Summary, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sum attendance.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		// unreadable snapshots are treated as missing and dropped
		_ = s.client.Del(ctx, key(userID)).Err()
		return nil, nil
	}
	return &sum, nil
}

func (s *Store) Put(ctx context.Context, userID string, sum attendance.Summary) error {
	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(userID), raw, s.ttl).Err()
}

func (s *Store) Invalidate(ctx context.Context, userID string) error {
	return s.client.Del(ctx, key(userID)).Err()
}
