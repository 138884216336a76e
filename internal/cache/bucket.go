package cache

import (
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously by elapsed time: size
// tokens per window. One token pays for one actual outbound backend
// call; cache hits cost nothing.
type bucket struct {
	mu     sync.Mutex
	size   float64
	refill time.Duration // time to regain one token
	tokens float64
	last   time.Time
}

func newBucket(size int, window time.Duration, now time.Time) *bucket {
	return &bucket{
		size:   float64(size),
		refill: window / time.Duration(size),
		tokens: float64(size),
		last:   now,
	}
}

// take consumes one token if available.
func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens += float64(elapsed) / float64(b.refill)
		if b.tokens > b.size {
			b.tokens = b.size
		}
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
