package realtime

import (
	"sync"
	"time"
)

// RateLimiter caps inbound events per connection per wall-clock minute.
// Denial drops the offending event only; disconnecting is the caller's call.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	buckets map[string]*minuteBucket
	now     func() time.Time
}

type minuteBucket struct {
	minute int64
	count  int
}

// NewRateLimiter builds a limiter allowing limit events per minute per
// connection.
func NewRateLimiter(limit int) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	return &RateLimiter{
		limit:   limit,
		buckets: make(map[string]*minuteBucket),
		now:     time.Now,
	}
}

// Allow records one inbound event for connID and reports whether it is
// within the current minute's budget. The counter resets when the wall-clock
// minute rolls over.
func (l *RateLimiter) Allow(connID string) bool {
	minute := l.now().Unix() / 60

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.buckets[connID]
	if bucket == nil || bucket.minute != minute {
		bucket = &minuteBucket{minute: minute}
		l.buckets[connID] = bucket
	}
	if bucket.count >= l.limit {
		return false
	}
	bucket.count++
	return true
}

// Forget drops the counter for a disconnected connection so the table never
// grows with stale entries.
func (l *RateLimiter) Forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, connID)
}

// Tracked reports whether connID currently has a bucket. Used by tests and
// leak checks.
func (l *RateLimiter) Tracked(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.buckets[connID]
	return ok
}
