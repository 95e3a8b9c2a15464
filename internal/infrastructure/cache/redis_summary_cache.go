package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appusage "github.com/screentime/backend/internal/application/usage"
	"github.com/screentime/backend/internal/infrastructure/config"
)

// RedisSummaryCache caches computed usage summaries in Redis. Every summary
// key embeds the device ID, so invalidating a device is a pattern scan over
// its keys.
type RedisSummaryCache struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client from configuration and verifies the
// connection
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSummaryCache creates a summary cache over an existing Redis client
func NewRedisSummaryCache(client *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{client: client}
}

// Get retrieves a cached value into the given pointer. A miss is reported as
// (false, nil).
func (c *RedisSummaryCache) Get(ctx context.Context, key string, value any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return true, nil
}

// Set stores a value under the given key with a TTL
func (c *RedisSummaryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateDevice deletes every cached summary whose key references the
// device
func (c *RedisSummaryCache) InvalidateDevice(ctx context.Context, deviceID uuid.UUID) error {
	pattern := fmt.Sprintf("summary:*%s*", deviceID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys for device %s: %w", deviceID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close closes the underlying Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// Ensure RedisSummaryCache implements the application cache interface
var _ appusage.SummaryCache = (*RedisSummaryCache)(nil)
