// Package aggregate orchestrates listening-data lookups: it routes an
// account to its backend adapter, applies the per-endpoint cache
// policy, and shapes raw snapshots into presentation-ready results.
package aggregate

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/chorus/internal/backend"
	"github.com/mkarlsen/chorus/internal/cache"
	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// TTLPolicy holds the freshness window per endpoint class. Recent
// tracks churn constantly; rankings and loved tracks barely move.
type TTLPolicy struct {
	Recent time.Duration
	Loved  time.Duration
	Top    time.Duration
	User   time.Duration
}

// DefaultTTLPolicy returns the standard freshness windows.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Recent: 30 * time.Second,
		Loved:  20 * time.Minute,
		Top:    20 * time.Minute,
		User:   10 * time.Minute,
	}
}

func (p TTLPolicy) forEndpoint(endpoint scrobble.EndpointKind) time.Duration {
	switch endpoint {
	case scrobble.RecentTracks:
		return p.Recent
	case scrobble.LovedTracks:
		return p.Loved
	case scrobble.UserInfo:
		return p.User
	default:
		return p.Top
	}
}

// Config tunes an Aggregator.
type Config struct {
	TTL TTLPolicy
	// Rand drives the random-pick operation. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Aggregator answers listening-data queries for any configured
// backend through a shared cache.
type Aggregator struct {
	adapters map[scrobble.BackendKind]backend.Adapter
	cache    *cache.Cache
	ttl      TTLPolicy
	rng      *rand.Rand
	logger   zerolog.Logger
}

// New creates an Aggregator over the given adapters and cache.
func New(cfg Config, adapters map[scrobble.BackendKind]backend.Adapter, c *cache.Cache, logger zerolog.Logger) *Aggregator {
	if cfg.TTL == (TTLPolicy{}) {
		cfg.TTL = DefaultTTLPolicy()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Aggregator{
		adapters: adapters,
		cache:    c,
		ttl:      cfg.TTL,
		rng:      rng,
		logger:   logger.With().Str("component", "aggregate").Logger(),
	}
}

// StatusResult is the "what are they listening to" answer: the current
// or latest track first, then up to depth-1 preceding plays.
type StatusResult struct {
	Account scrobble.Account
	Tracks  []scrobble.Track
	Stale   bool
	// Empty means the account exists but has no listening history.
	Empty bool
}

// LovedResult lists an account's most recently loved tracks.
type LovedResult struct {
	Account scrobble.Account
	Tracks  []scrobble.Track
	Stale   bool
	Empty   bool
}

// TopResult is a ranked chart for one subject kind over one period.
type TopResult struct {
	Account scrobble.Account
	Subject scrobble.SubjectKind
	Period  scrobble.Period
	Entries []scrobble.RankedEntry
	Stale   bool
	Empty   bool
}

// PickResult is one randomly chosen entry out of an account's
// heaviest rotation.
type PickResult struct {
	Account scrobble.Account
	Subject scrobble.SubjectKind
	Entry   scrobble.RankedEntry
	// Pool is how many candidates the pick was drawn from.
	Pool  int
	Empty bool
}

// ProfileResult wraps the backend's view of the account itself.
type ProfileResult struct {
	Account scrobble.Account
	User    scrobble.UserProfile
	Stale   bool
}

// Fetch depths are fixed per endpoint so that every operation sharing
// a cache key sees the same snapshot. Projections slice afterwards:
// a top-5 chart and a top-50 random pool are views of one fetch, a
// depth-1 status and a depth-3 one share the recent-tracks entry.
const (
	recentFetchDepth = 3
	lovedFetchDepth  = 5
	topFetchDepth    = 50

	lovedDepth    = 5
	defaultTopN   = 5
	randomPoolMax = 50
)

func (a *Aggregator) adapter(account scrobble.Account) (backend.Adapter, error) {
	ad, ok := a.adapters[account.Kind]
	if !ok {
		return nil, scrobble.NewError(scrobble.KindUnsupported, account.Kind, "backend is not configured")
	}
	return ad, nil
}

func (a *Aggregator) fetch(ctx context.Context, account scrobble.Account, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) (*scrobble.ListeningSnapshot, error) {
	ad, err := a.adapter(account)
	if err != nil {
		return nil, err
	}

	key := cache.Key{
		Backend:  account.Kind,
		Endpoint: endpoint,
		Subject:  account.Username,
		Period:   period,
	}
	return a.cache.GetOrFetch(ctx, key, a.ttl.forEndpoint(endpoint), func(ctx context.Context) (*scrobble.ListeningSnapshot, error) {
		a.logger.Debug().
			Str("backend", string(account.Kind)).
			Str("user", account.Username).
			Str("endpoint", string(endpoint)).
			Msg("fetching from backend")
		return ad.Fetch(ctx, account, endpoint, period, limit)
	})
}

// Status returns the account's current or most recent plays. depth is
// how many tracks to surface, the currently playing one included.
func (a *Aggregator) Status(ctx context.Context, account scrobble.Account, depth int) (*StatusResult, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > recentFetchDepth {
		depth = recentFetchDepth
	}

	snap, err := a.fetch(ctx, account, scrobble.RecentTracks, scrobble.Overall, recentFetchDepth)
	if err != nil {
		if scrobble.IsKind(err, scrobble.KindNotFound) {
			return &StatusResult{Account: account, Empty: true}, nil
		}
		return nil, err
	}

	tracks := snap.Tracks
	if len(tracks) > depth {
		tracks = tracks[:depth]
	}
	return &StatusResult{
		Account: account,
		Tracks:  tracks,
		Stale:   snap.Stale,
		Empty:   len(tracks) == 0,
	}, nil
}

// Loved returns the account's latest loved tracks.
func (a *Aggregator) Loved(ctx context.Context, account scrobble.Account) (*LovedResult, error) {
	snap, err := a.fetch(ctx, account, scrobble.LovedTracks, scrobble.Overall, lovedFetchDepth)
	if err != nil {
		if scrobble.IsKind(err, scrobble.KindNotFound) {
			return &LovedResult{Account: account, Empty: true}, nil
		}
		return nil, err
	}

	tracks := snap.Tracks
	if len(tracks) > lovedDepth {
		tracks = tracks[:lovedDepth]
	}
	return &LovedResult{
		Account: account,
		Tracks:  tracks,
		Stale:   snap.Stale,
		Empty:   len(tracks) == 0,
	}, nil
}

// Top returns the account's default-sized chart for subject and period.
func (a *Aggregator) Top(ctx context.Context, account scrobble.Account, subject scrobble.SubjectKind, period scrobble.Period) (*TopResult, error) {
	return a.TopN(ctx, account, subject, period, defaultTopN)
}

// TopN returns the account's n highest-play-count entries for subject
// and period, ranked.
func (a *Aggregator) TopN(ctx context.Context, account scrobble.Account, subject scrobble.SubjectKind, period scrobble.Period, n int) (*TopResult, error) {
	if n < 1 {
		n = defaultTopN
	}

	fetchLimit := topFetchDepth
	if n > fetchLimit {
		fetchLimit = n
	}
	snap, err := a.fetch(ctx, account, subject.Endpoint(), period, fetchLimit)
	if err != nil {
		if scrobble.IsKind(err, scrobble.KindNotFound) {
			return &TopResult{Account: account, Subject: subject, Period: period, Empty: true}, nil
		}
		return nil, err
	}

	entries := snap.Entries
	if len(entries) > n {
		entries = entries[:n]
	}
	return &TopResult{
		Account: account,
		Subject: subject,
		Period:  period,
		Entries: entries,
		Stale:   snap.Stale,
		Empty:   len(entries) == 0,
	}, nil
}

// RandomPick draws one entry uniformly from the account's all-time top
// rotation for the subject kind.
func (a *Aggregator) RandomPick(ctx context.Context, account scrobble.Account, subject scrobble.SubjectKind) (*PickResult, error) {
	snap, err := a.fetch(ctx, account, subject.Endpoint(), scrobble.Overall, topFetchDepth)
	if err != nil {
		if scrobble.IsKind(err, scrobble.KindNotFound) {
			return &PickResult{Account: account, Subject: subject, Empty: true}, nil
		}
		return nil, err
	}

	pool := snap.Entries
	if len(pool) > randomPoolMax {
		pool = pool[:randomPoolMax]
	}
	if len(pool) == 0 {
		return &PickResult{Account: account, Subject: subject, Empty: true}, nil
	}

	return &PickResult{
		Account: account,
		Subject: subject,
		Entry:   pool[a.rng.Intn(len(pool))],
		Pool:    len(pool),
	}, nil
}

// Profile returns the backend's user record for the account.
func (a *Aggregator) Profile(ctx context.Context, account scrobble.Account) (*ProfileResult, error) {
	snap, err := a.fetch(ctx, account, scrobble.UserInfo, scrobble.Overall, 1)
	if err != nil {
		return nil, err
	}
	if snap.User == nil {
		return nil, scrobble.NewError(scrobble.KindUnavailable, account.Kind, "backend returned no user record")
	}
	return &ProfileResult{Account: account, User: *snap.User, Stale: snap.Stale}, nil
}
