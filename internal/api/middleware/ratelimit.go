package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limit     rate.Limit
	burst     int
	onLimited http.HandlerFunc

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows perMinute requests per client IP per minute, with
// bursts up to the same amount.
func NewRateLimiter(perMinute int, onLimited http.HandlerFunc) *RateLimiter {
	return &RateLimiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		onLimited: onLimited,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}

		if !l.allow(ip, time.Now()) {
			w.Header().Set("Retry-After", "60")
			l.onLimited(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > limiterIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
