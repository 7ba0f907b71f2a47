package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusTTL   = 24 * time.Hour
	presenceTTL = 5 * time.Minute
)

// RedisStore handles Redis operations: the ephemeral status cache, presence
// last-seen tracking and the rate limiter backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for the rate limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func statusKey(userID string) string {
	return fmt.Sprintf("status:%s", userID)
}

func presenceKey(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

// CachedStatus is the ephemeral status record kept alongside the user row.
// Statuses expire like stories: 24 hours after the last update.
type CachedStatus struct {
	UserID          string `json:"userId"`
	Status          string `json:"status"`
	StatusMedia     string `json:"statusMedia,omitempty"`
	StatusMediaType string `json:"statusMediaType,omitempty"`
	UpdatedAt       int64  `json:"updatedAt"` // Unix ms
}

// SetStatus caches a user's latest status with the 24h TTL.
func (s *RedisStore) SetStatus(ctx context.Context, status *CachedStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statusKey(status.UserID), data, statusTTL).Err()
}

// GetStatus returns a user's cached status, or nil if none or expired.
func (s *RedisStore) GetStatus(ctx context.Context, userID string) (*CachedStatus, error) {
	data, err := s.client.Get(ctx, statusKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var status CachedStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TouchPresence marks a user as recently seen. Refreshed while the websocket
// is open; the key decaying means the user went offline uncleanly.
func (s *RedisStore) TouchPresence(ctx context.Context, userID string) error {
	return s.client.Set(ctx, presenceKey(userID), time.Now().UnixMilli(), presenceTTL).Err()
}

// ClearPresence removes a user's presence mark on clean disconnect.
func (s *RedisStore) ClearPresence(ctx context.Context, userID string) error {
	return s.client.Del(ctx, presenceKey(userID)).Err()
}

// LastSeen returns the Unix ms a user was last seen, or 0 when unknown.
func (s *RedisStore) LastSeen(ctx context.Context, userID string) (int64, error) {
	val, err := s.client.Get(ctx, presenceKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return val, nil
}
