package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("UUTISVAHTI_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("UUTISVAHTI_TEST_DURATION", time.Minute))

	t.Setenv("UUTISVAHTI_TEST_DURATION", "15")
	assert.Equal(t, 15*time.Minute, GetEnvDuration("UUTISVAHTI_TEST_DURATION", time.Minute))

	t.Setenv("UUTISVAHTI_TEST_DURATION", "bogus")
	assert.Equal(t, time.Minute, GetEnvDuration("UUTISVAHTI_TEST_DURATION", time.Minute))
}

func TestDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv("UUTISVAHTI_MAX_ENTRIES", "7")
	t.Setenv("UUTISVAHTI_USER_AGENT", "Test/1.0")

	cfg := DefaultConfig()
	assert.Equal(t, 7, cfg.MaxEntries)
	assert.Equal(t, "Test/1.0", cfg.UserAgent)
	assert.Equal(t, DefaultDBDriver, cfg.DBDriver)
	assert.Equal(t, cfg.DBPath, cfg.DataSource())
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ingest:
  max_entries: 10
  fetch_timeout: 5s
  keywords: ["gpt-5", "benchmark"]
enrich:
  batch: 2
  delay: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, 10, cfg.MaxEntries)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"gpt-5", "benchmark"}, cfg.Keywords)
	assert.Equal(t, 2, cfg.EnrichBatch)
	assert.Equal(t, time.Second, cfg.EnrichDelay)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
}

func TestApplyFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
