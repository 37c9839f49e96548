package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinel-news/sentinel/app/feed"
)

const redisKeyPrefix = "sentinel:items:"

// Redis is an alternative cache backend for deployments running more
// than one server process. TTL eviction is native, so unlike Memory the
// key space does not grow unbounded. Failures degrade to cache misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis connects to Redis at addr and verifies the connection.
func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(key string) ([]feed.Item, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("Redis cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}

	var items []feed.Item
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("Redis cache entry unreadable, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return items, true
}

func (r *Redis) Set(key string, items []feed.Item) {
	data, err := json.Marshal(items)
	if err != nil {
		slog.Warn("Failed to marshal items for cache", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		slog.Warn("Redis cache write failed", "key", key, "error", err)
	}
}

func (r *Redis) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	keys, err := r.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		slog.Warn("Redis key count failed", "error", err)
		return 0
	}
	return len(keys)
}

// Close releases the underlying client connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
