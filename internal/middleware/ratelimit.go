package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/geoip"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// ClientKey buckets requests by caller IP.
func ClientKey(r *http.Request) string {
	return "ip:" + geoip.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
}

// UserOrClientKey buckets authenticated requests by user and anonymous ones by IP.
// It must run after the auth middleware.
func UserOrClientKey(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	return ClientKey(r)
}

type bucket struct {
	count int
	until time.Time
}

// windowLimiter counts requests per key in fixed windows. Expired buckets are
// swept at most once per window so the map does not grow with every caller seen.
type windowLimiter struct {
	mu        sync.Mutex
	limit     int
	per       time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newWindowLimiter(limit int, per time.Duration) *windowLimiter {
	return &windowLimiter{limit: limit, per: per, buckets: make(map[string]*bucket)}
}

// allow records one request for key at now. It returns the requests left in
// the window, or false and the wait until the window resets.
func (l *windowLimiter) allow(key string, now time.Time) (bool, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.per {
		for k, b := range l.buckets {
			if now.After(b.until) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok || now.After(b.until) {
		b = &bucket{until: now.Add(l.per)}
		l.buckets[key] = b
	}
	if b.count >= l.limit {
		return false, 0, b.until.Sub(now)
	}
	b.count++
	return true, l.limit - b.count, 0
}

// RateLimit allows limit requests per client IP in each fixed window of length per.
// A non-positive limit disables the check.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return RateLimitBy(limit, per, ClientKey)
}

// RateLimitBy is RateLimit with a caller-chosen bucket key.
func RateLimitBy(limit int, per time.Duration, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		limiter := newWindowLimiter(limit, per)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, wait := limiter.allow(key(r), time.Now())
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
