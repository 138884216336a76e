package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Default account used when a command names no user
	Account AccountConfig

	// Last.fm / libre.fm API credentials
	LastFM LastFMConfig

	// Base URL overrides, mostly useful for testing
	LastFMBaseURL       string
	LibreFMBaseURL      string
	ListenBrainzBaseURL string

	Cache   CacheConfig
	Collage CollageConfig

	// Log level: trace, debug, info, warn, error
	LogLevel string
}

// AccountConfig names the default scrobble account.
type AccountConfig struct {
	Backend  string
	Username string
}

// LastFMConfig holds audioscrobbler API credentials
type LastFMConfig struct {
	APIKey string
}

// CacheConfig tunes the snapshot cache and art store.
type CacheConfig struct {
	MaxEntries   int
	BucketSize   int
	BucketWindow time.Duration

	RecentTTL time.Duration
	LovedTTL  time.Duration
	TopTTL    time.Duration
	UserTTL   time.Duration

	// ArtStorePath is the SQLite file holding fetched album art.
	ArtStorePath string
	ArtTTL       time.Duration
}

// CollageConfig tunes collage rendering.
type CollageConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("account.backend", "lastfm")
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("cache.bucket_size", 30)
	v.SetDefault("cache.bucket_window", "1m")
	v.SetDefault("cache.recent_ttl", "30s")
	v.SetDefault("cache.loved_ttl", "20m")
	v.SetDefault("cache.top_ttl", "20m")
	v.SetDefault("cache.user_ttl", "10m")
	v.SetDefault("cache.art_store_path", filepath.Join(configDir, "art.db"))
	v.SetDefault("cache.art_ttl", "168h")
	v.SetDefault("collage.concurrency", 8)
	v.SetDefault("collage.timeout", "45s")
	v.SetDefault("log_level", "info")

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("CHORUS")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		Account: AccountConfig{
			Backend:  v.GetString("account.backend"),
			Username: v.GetString("account.username"),
		},
		LastFM: LastFMConfig{
			APIKey: v.GetString("lastfm.api_key"),
		},
		LastFMBaseURL:       v.GetString("lastfm.base_url"),
		LibreFMBaseURL:      v.GetString("librefm.base_url"),
		ListenBrainzBaseURL: v.GetString("listenbrainz.base_url"),
		Cache: CacheConfig{
			MaxEntries:   v.GetInt("cache.max_entries"),
			BucketSize:   v.GetInt("cache.bucket_size"),
			BucketWindow: v.GetDuration("cache.bucket_window"),
			RecentTTL:    v.GetDuration("cache.recent_ttl"),
			LovedTTL:     v.GetDuration("cache.loved_ttl"),
			TopTTL:       v.GetDuration("cache.top_ttl"),
			UserTTL:      v.GetDuration("cache.user_ttl"),
			ArtStorePath: v.GetString("cache.art_store_path"),
			ArtTTL:       v.GetDuration("cache.art_ttl"),
		},
		Collage: CollageConfig{
			Concurrency: v.GetInt("collage.concurrency"),
			Timeout:     v.GetDuration("collage.timeout"),
		},
		LogLevel: v.GetString("log_level"),
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "chorus")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}
