package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "uutisvahti:seen:"

// RedisCache remembers article URLs that are known to be stored.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at url and verifies the connection.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return r.prefix + hex.EncodeToString(sum[:])
}

// Seen reports whether url was remembered and has not expired.
func (r *RedisCache) Seen(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(url)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n > 0, nil
}

// Remember marks url as stored for the configured TTL.
func (r *RedisCache) Remember(ctx context.Context, url string) error {
	if err := r.client.Set(ctx, r.key(url), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Clear drops every remembered URL.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}
	return nil
}
