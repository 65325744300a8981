package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uutisvahti/aggregator/internal/config"
)

func TestClearSeenCacheWithoutRedis(t *testing.T) {
	assert.NoError(t, clearSeenCache(context.Background(), &config.Config{}))
}

func TestClearSeenCacheRejectsBadURL(t *testing.T) {
	err := clearSeenCache(context.Background(), &config.Config{RedisURL: "://nope"})
	assert.Error(t, err)
}

func TestRunMigrateDownWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		DBDriver: config.DefaultDBDriver,
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}

	require.NoError(t, runMigrate(cfg, 0))
	assert.NoError(t, runMigrate(cfg, 1))
}
