// Package cache sits between the aggregator and the backend adapters.
// It serves fresh-enough snapshots, collapses concurrent fetches for
// the same key into a single backend call, and enforces a per-backend
// request budget, falling back to stale entries when the budget runs
// out.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// FetchFunc performs the actual backend call on a cache miss.
type FetchFunc func(ctx context.Context) (*scrobble.ListeningSnapshot, error)

// Config holds cache tuning parameters.
type Config struct {
	MaxEntries   int           // LRU capacity, defaults to 512
	BucketSize   int           // tokens per backend per window, defaults to 30
	BucketWindow time.Duration // refill window, defaults to 1m
	Now          func() time.Time
}

// Cache is a rate-limited snapshot cache. All methods are safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List // front = most recently used
	buckets map[scrobble.BackendKind]*bucket

	group singleflight.Group

	maxEntries   int
	bucketSize   int
	bucketWindow time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

type cacheEntry struct {
	key  string
	snap *scrobble.ListeningSnapshot
}

// New creates a Cache.
func New(cfg Config, logger zerolog.Logger) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 512
	}
	if cfg.BucketSize <= 0 {
		cfg.BucketSize = 30
	}
	if cfg.BucketWindow <= 0 {
		cfg.BucketWindow = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		items:        make(map[string]*list.Element),
		lru:          list.New(),
		buckets:      make(map[scrobble.BackendKind]*bucket),
		maxEntries:   cfg.MaxEntries,
		bucketSize:   cfg.BucketSize,
		bucketWindow: cfg.BucketWindow,
		now:          cfg.Now,
		logger:       logger.With().Str("component", "cache").Logger(),
	}
}

// GetOrFetch returns a snapshot for key, fetching it at most once no
// matter how many callers ask concurrently. A caller whose context
// ends while a fetch is in flight gets its context error; the fetch
// itself keeps running and still populates the cache.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) (*scrobble.ListeningSnapshot, error) {
	k := key.String()

	if snap, fresh := c.lookup(k); fresh {
		return snap, nil
	}

	ch := c.group.DoChan(k, func() (interface{}, error) {
		return c.refresh(ctx, key, k, ttl, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*scrobble.ListeningSnapshot), nil
	}
}

// refresh is the single-flight body: re-checks freshness (another
// flight may have just stored the key), pays the token, and performs
// the backend call detached from the caller's cancellation.
func (c *Cache) refresh(ctx context.Context, key Key, k string, ttl time.Duration, fetch FetchFunc) (*scrobble.ListeningSnapshot, error) {
	if snap, fresh := c.lookup(k); fresh {
		return snap, nil
	}

	if !c.bucket(key.Backend).take(c.now()) {
		if stale, ok := c.peek(k); ok {
			c.logger.Debug().Str("key", k).Msg("budget exhausted, serving stale entry")
			return markStale(stale), nil
		}
		return nil, scrobble.NewError(scrobble.KindThrottled, key.Backend, "request budget exhausted")
	}

	snap, err := fetch(context.WithoutCancel(ctx))
	if err != nil {
		// A throttling backend is a soft failure: degrade to a stale
		// entry when one exists.
		if scrobble.IsKind(err, scrobble.KindRateLimited) {
			if stale, ok := c.peek(k); ok {
				c.logger.Debug().Str("key", k).Msg("backend rate limited, serving stale entry")
				return markStale(stale), nil
			}
		}
		return nil, err
	}

	if snap.TTL == 0 {
		snap.TTL = ttl
	}
	c.store(k, snap)
	return snap, nil
}

func markStale(snap *scrobble.ListeningSnapshot) *scrobble.ListeningSnapshot {
	stale := *snap
	stale.Stale = true
	return &stale
}

// lookup returns the entry for k and whether it is still fresh. An
// expired entry stays resident so it can be served stale later; it is
// only displaced by LRU pressure or the next successful refresh.
func (c *Cache) lookup(k string) (*scrobble.ListeningSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	snap := elem.Value.(*cacheEntry).snap
	if snap.Expired(c.now()) {
		return snap, false
	}
	return snap, true
}

// peek returns the entry for k regardless of freshness.
func (c *Cache) peek(k string) (*scrobble.ListeningSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return nil, false
	}
	return elem.Value.(*cacheEntry).snap, true
}

func (c *Cache) store(k string, snap *scrobble.ListeningSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		elem.Value.(*cacheEntry).snap = snap
		c.lru.MoveToFront(elem)
		return
	}

	c.items[k] = c.lru.PushFront(&cacheEntry{key: k, snap: snap})
	for c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *Cache) bucket(backend scrobble.BackendKind) *bucket {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[backend]
	if !ok {
		b = newBucket(c.bucketSize, c.bucketWindow, c.now())
		c.buckets[backend] = b
	}
	return b
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
