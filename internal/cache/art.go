package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ArtFetcher fetches album art by URL with single-flight joining and a
// persistent byte cache. It is the collage renderer's view of the
// caching layer; art CDNs are not subject to the API token buckets.
type ArtFetcher struct {
	store  *ArtStore // optional
	client *http.Client
	group  singleflight.Group
	logger zerolog.Logger
}

// NewArtFetcher creates an ArtFetcher. store may be nil, in which case
// every request goes to the network (still single-flighted).
func NewArtFetcher(store *ArtStore, client *http.Client, logger zerolog.Logger) *ArtFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ArtFetcher{
		store:  store,
		client: client,
		logger: logger.With().Str("component", "artfetcher").Logger(),
	}
}

// FetchArt returns the image bytes at url.
func (f *ArtFetcher) FetchArt(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty art URL")
	}

	if f.store != nil {
		if data, err := f.store.Get(ctx, url); err == nil && data != nil {
			return data, nil
		}
	}

	ch := f.group.DoChan(url, func() (interface{}, error) {
		return f.download(context.WithoutCancel(ctx), url)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *ArtFetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "chorus/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch art: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read art: %w", err)
	}

	if f.store != nil {
		if err := f.store.Put(ctx, url, data); err != nil {
			f.logger.Debug().Err(err).Str("url", url).Msg("failed to persist art")
		}
	}
	return data, nil
}
