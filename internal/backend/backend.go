// Package backend translates the three scrobble service APIs into the
// normalized model of pkg/scrobble. Adapters do translation only; all
// caching, throttling and projection happens above them.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// Adapter fetches one endpoint of one backend and returns a normalized
// snapshot. period is only meaningful for top-N endpoints; limit caps
// the number of returned items where the endpoint supports it.
type Adapter interface {
	Fetch(ctx context.Context, account scrobble.Account, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) (*scrobble.ListeningSnapshot, error)
}

// Options holds adapter configuration.
type Options struct {
	APIKey      string        // audioscrobbler API key (Last.fm / Libre.fm)
	BaseURL     string        // override the backend base URL (used in tests)
	HTTPClient  *http.Client  // defaults to a plain http.Client
	CallTimeout time.Duration // hard per-call deadline, defaults to 25s
	Logger      zerolog.Logger
}

const (
	lastfmBaseURL       = "https://ws.audioscrobbler.com/2.0/"
	librefmBaseURL      = "https://libre.fm/2.0/"
	listenbrainzBaseURL = "https://api.listenbrainz.org/1/"

	defaultCallTimeout = 25 * time.Second
)

// New creates the adapter for the given backend kind.
func New(kind scrobble.BackendKind, opts Options) (Adapter, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	switch kind {
	case scrobble.LastFM:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("backend: %s requires an API key", kind)
		}
		return newAudioscrobbler(kind, lastfmBaseURL, true, opts), nil
	case scrobble.LibreFM:
		// Libre.fm speaks the audioscrobbler 2.0 protocol but has no
		// loved-tracks feedback store.
		return newAudioscrobbler(kind, librefmBaseURL, false, opts), nil
	case scrobble.ListenBrainz:
		return newListenBrainz(opts), nil
	default:
		return nil, fmt.Errorf("backend: unknown kind %q", kind)
	}
}
