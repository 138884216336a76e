package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lastfm", cfg.Account.Backend)
	assert.Equal(t, 512, cfg.Cache.MaxEntries)
	assert.Equal(t, 30, cfg.Cache.BucketSize)
	assert.Equal(t, time.Minute, cfg.Cache.BucketWindow)
	assert.Equal(t, 30*time.Second, cfg.Cache.RecentTTL)
	assert.Equal(t, 20*time.Minute, cfg.Cache.TopTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.ArtTTL)
	assert.Equal(t, 8, cfg.Collage.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Collage.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "chorus")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	yaml := `
account:
  backend: listenbrainz
  username: kate
lastfm:
  api_key: abc123
cache:
  bucket_size: 10
  recent_ttl: 15s
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "listenbrainz", cfg.Account.Backend)
	assert.Equal(t, "kate", cfg.Account.Username)
	assert.Equal(t, "abc123", cfg.LastFM.APIKey)
	assert.Equal(t, 10, cfg.Cache.BucketSize)
	assert.Equal(t, 15*time.Second, cfg.Cache.RecentTTL)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Unset keys keep their defaults.
	assert.Equal(t, 20*time.Minute, cfg.Cache.TopTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHORUS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
}
