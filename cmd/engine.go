/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mkarlsen/chorus/internal/aggregate"
	"github.com/mkarlsen/chorus/internal/backend"
	"github.com/mkarlsen/chorus/internal/cache"
	"github.com/mkarlsen/chorus/internal/collage"
	"github.com/mkarlsen/chorus/internal/config"
	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// engine bundles everything a query command needs.
type engine struct {
	cfg        *config.Config
	aggregator *aggregate.Aggregator
	renderer   *collage.Renderer
	artStore   *cache.ArtStore
	logger     zerolog.Logger
}

// newEngine loads configuration and wires adapters, cache, and
// renderer together. Close must be called when done.
func newEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	adapters := make(map[scrobble.BackendKind]backend.Adapter)
	if cfg.LastFM.APIKey != "" {
		ad, err := backend.New(scrobble.LastFM, backend.Options{
			APIKey:  cfg.LastFM.APIKey,
			BaseURL: cfg.LastFMBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		adapters[scrobble.LastFM] = ad
	}
	librefm, err := backend.New(scrobble.LibreFM, backend.Options{
		BaseURL: cfg.LibreFMBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	adapters[scrobble.LibreFM] = librefm

	listenbrainz, err := backend.New(scrobble.ListenBrainz, backend.Options{
		BaseURL: cfg.ListenBrainzBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	adapters[scrobble.ListenBrainz] = listenbrainz

	snapCache := cache.New(cache.Config{
		MaxEntries:   cfg.Cache.MaxEntries,
		BucketSize:   cfg.Cache.BucketSize,
		BucketWindow: cfg.Cache.BucketWindow,
	}, logger)

	aggregator := aggregate.New(aggregate.Config{
		TTL: aggregate.TTLPolicy{
			Recent: cfg.Cache.RecentTTL,
			Loved:  cfg.Cache.LovedTTL,
			Top:    cfg.Cache.TopTTL,
			User:   cfg.Cache.UserTTL,
		},
	}, adapters, snapCache, logger)

	artStore, err := cache.OpenArtStore(cfg.Cache.ArtStorePath, cfg.Cache.ArtTTL)
	if err != nil {
		return nil, err
	}
	if pruned, err := artStore.Prune(context.Background()); err == nil && pruned > 0 {
		logger.Debug().Int64("pruned", pruned).Msg("removed expired art entries")
	}

	fetcher := cache.NewArtFetcher(artStore, nil, logger)
	renderer := collage.NewRenderer(fetcher, logger,
		collage.WithConcurrency(cfg.Collage.Concurrency),
		collage.WithTimeout(cfg.Collage.Timeout),
	)

	return &engine{
		cfg:        cfg,
		aggregator: aggregator,
		renderer:   renderer,
		artStore:   artStore,
		logger:     logger,
	}, nil
}

func (e *engine) Close() {
	if e.artStore != nil {
		e.artStore.Close()
	}
}

// resolveAccount picks the account a command targets: the --user and
// --backend flags when given, the configured default otherwise.
func (e *engine) resolveAccount(cmd *cobra.Command) (scrobble.Account, error) {
	username, _ := cmd.Flags().GetString("user")
	backendName, _ := cmd.Flags().GetString("backend")

	if username == "" {
		username = e.cfg.Account.Username
	}
	if backendName == "" {
		backendName = e.cfg.Account.Backend
	}
	if username == "" {
		return scrobble.Account{}, fmt.Errorf("no username given and none configured; set account.username or pass --user")
	}

	kind, err := scrobble.ParseBackend(backendName)
	if err != nil {
		return scrobble.Account{}, err
	}
	return scrobble.Account{Kind: kind, Username: username}, nil
}

// addAccountFlags registers the account-selection flags shared by all
// query commands.
func addAccountFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "Username to query (defaults to the configured account)")
	cmd.Flags().StringP("backend", "b", "", "Scrobble backend: lastfm, librefm, or listenbrainz")
}

// friendlyError rewrites backend errors into something a person can
// act on. Unknown errors pass through unchanged.
func friendlyError(err error) error {
	var serr *scrobble.Error
	if !errors.As(err, &serr) {
		return err
	}

	switch serr.Kind {
	case scrobble.KindNotFound:
		return fmt.Errorf("that user has no listening history yet")
	case scrobble.KindAuthInvalid:
		return fmt.Errorf("the backend rejected our credentials; check your API key")
	case scrobble.KindRateLimited, scrobble.KindThrottled:
		return fmt.Errorf("too many requests right now, try again shortly")
	case scrobble.KindTimeout:
		return fmt.Errorf("the backend took too long to answer, try again shortly")
	case scrobble.KindUnavailable:
		return fmt.Errorf("the backend is having trouble, try again shortly")
	case scrobble.KindUnsupported:
		return fmt.Errorf("that operation is not supported for this backend")
	default:
		return err
	}
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	logger := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Logger().
		Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	return logger
}
