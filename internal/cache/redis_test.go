package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "://nope", time.Minute)
	assert.Error(t, err)
}

func TestKeyIsHashedAndPrefixed(t *testing.T) {
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), time.Minute)
	defer c.Close()

	k := c.key("https://example.com/a")
	assert.Equal(t, defaultPrefix, k[:len(defaultPrefix)])
	assert.Len(t, k, len(defaultPrefix)+64)
	assert.NotEqual(t, k, c.key("https://example.com/b"))
}
