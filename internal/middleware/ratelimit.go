package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter is a set of token buckets indexed by a caller-chosen key
// (client IP, or IP+handle for the submit endpoint). Each key gets an
// independent rate.Limiter; idle entries are swept so the map doesn't grow
// with every IP that ever connected.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	limit rate.Limit
	burst int

	idleTTL   time.Duration
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows `events` requests per `window` for each key. The
// bucket starts full, so a burst up to `events` is accepted immediately and
// then refills evenly over the window.
func NewKeyedLimiter(events int, window time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		entries:   make(map[string]*limiterEntry),
		limit:     rate.Every(window / time.Duration(events)),
		burst:     events,
		idleTTL:   2 * window,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the key may proceed, alongside the remaining budget
// for the response headers.
func (l *KeyedLimiter) Allow(key string) (allowed bool, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweepLocked(now)

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	allowed = e.limiter.Allow()
	remaining = int(math.Floor(e.limiter.Tokens()))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

// Burst returns the per-key budget, for the X-RateLimit-Limit header.
func (l *KeyedLimiter) Burst() int { return l.burst }

// sweepLocked drops entries idle longer than the TTL. Runs at most once per
// TTL, amortised across Allow calls.
func (l *KeyedLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

// RateLimit enforces a KeyedLimiter per client IP on everything below it.
// Rejected requests get 429 with X-RateLimit-* headers; the client backs off
// and retries, the server never queues.
func RateLimit(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return limitBy(limiter, func(r *http.Request) string {
		return requestIP(r)
	})
}

// SubmitRateLimit enforces the tighter per-target submission limit, keyed by
// (client IP, target handle). One asker hammering one inbox is throttled
// without touching their access to other inboxes.
func SubmitRateLimit(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return limitBy(limiter, func(r *http.Request) string {
		return requestIP(r) + "|" + r.PathValue("handle")
	})
}

func limitBy(limiter *KeyedLimiter, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining := limiter.Allow(key(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":"rate_limited","message":"too many requests, slow down"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestIP is the rate-limit key for one client. The RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr when configured; here we
// only strip the port.
func requestIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
