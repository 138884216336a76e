package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

const (
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	userAgent = "chorus/1.0"
)

// classifier turns an HTTP status and response body into a classified
// error, or nil when the response is a usable success. Each adapter
// supplies one because the backends signal failure differently (the
// audioscrobbler APIs happily return errors inside a 200 body).
type classifier func(status int, body []byte) *scrobble.Error

// transport performs GET requests with a hard per-call deadline and
// bounded exponential backoff for transient failures.
type transport struct {
	httpClient  *http.Client
	backend     scrobble.BackendKind
	callTimeout time.Duration
	classify    classifier
	logger      zerolog.Logger
}

func newTransport(backend scrobble.BackendKind, classify classifier, opts Options) *transport {
	return &transport{
		httpClient:  opts.HTTPClient,
		backend:     backend,
		callTimeout: opts.CallTimeout,
		classify:    classify,
		logger:      opts.Logger.With().Str("component", "transport").Str("backend", string(backend)).Logger(),
	}
}

// get fetches rawURL and returns the response body. Server errors,
// network errors and backend-signalled temporary errors are retried
// with exponential backoff; everything else surfaces classified.
func (t *transport) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.callTimeout)
	defer cancel()

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		t.logger.Debug().Str("url", rawURL).Int("attempt", attempt).Msg("backend request")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			if timedOut(ctx, err) {
				return nil, scrobble.WrapError(scrobble.KindTimeout, t.backend, "request deadline exceeded", err)
			}
			lastErr = err
			if retryableNetworkError(err) && attempt < maxAttempts {
				if !sleep(ctx, backoff) {
					return nil, t.ctxError(ctx)
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, scrobble.WrapError(scrobble.KindUnavailable, t.backend, "request failed", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			if timedOut(ctx, err) {
				return nil, scrobble.WrapError(scrobble.KindTimeout, t.backend, "request deadline exceeded", err)
			}
			return nil, scrobble.WrapError(scrobble.KindUnavailable, t.backend, "read response", err)
		}

		cerr := t.classify(resp.StatusCode, body)
		if cerr == nil {
			return body, nil
		}

		if cerr.Temporary() && attempt < maxAttempts {
			t.logger.Debug().Err(cerr).Msg("temporary backend error, retrying")
			lastErr = cerr
			if !sleep(ctx, backoff) {
				return nil, t.ctxError(ctx)
			}
			backoff = nextBackoff(backoff)
			continue
		}
		return nil, cerr
	}

	return nil, scrobble.WrapError(scrobble.KindUnavailable, t.backend, "max retries exceeded", lastErr)
}

// ctxError maps a finished context to the right error kind: the
// per-call deadline counts as a timeout, a cancelled caller does not.
func (t *transport) ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return scrobble.WrapError(scrobble.KindTimeout, t.backend, "request deadline exceeded", ctx.Err())
	}
	return ctx.Err()
}

func timedOut(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryableNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// sleep waits for the duration or until the context finishes. Returns
// false if the context finished first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
