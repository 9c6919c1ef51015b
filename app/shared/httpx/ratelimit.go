package httpx

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle key is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter hands out one token bucket per key and prunes stale keys inline.
type KeyedRateLimiter struct {
	keys map[string]*limiterEntry
	mu   sync.Mutex
	r    rate.Limit
	b    int
	now  func() time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with burst b per key.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: make(map[string]*limiterEntry),
		r:    r,
		b:    b,
		now:  time.Now,
	}
}

// GetLimiter returns the bucket for key.
func (l *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.keys) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.keys {
			if e.lastSeen.Before(cutoff) {
				delete(l.keys, k)
			}
		}
	}

	e, exists := l.keys[key]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow reports whether one more event for key fits in its bucket.
func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Size returns the number of tracked keys.
func (l *KeyedRateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// KeyFunc derives the rate limit key for a request.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by remote address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitMiddleware answers 429 once the caller's bucket is empty.
func RateLimitMiddleware(limiter *KeyedRateLimiter, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(key(r)) {
				Error(w, http.StatusTooManyRequests, "rate_limited", http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
