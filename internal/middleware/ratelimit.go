package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the per-IP limiter. The defaults mirror the
// platform's public limit of 100 requests per 15-minute window per client.
type RateLimiterConfig struct {
	Requests        int           // max requests per window
	Window          time.Duration // window size
	CleanupInterval time.Duration // how often idle entries are dropped
}

// DefaultRateLimiterConfig returns the production defaults.
func DefaultRateLimiterConfig(requests int, window time.Duration) RateLimiterConfig {
	return RateLimiterConfig{
		Requests:        requests,
		Window:          window,
		CleanupInterval: 5 * time.Minute,
	}
}

// ipLimiter pairs a token bucket with its last-seen time so idle entries
// can be evicted.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token-bucket limit per client IP. Limiting is keyed
// on IP rather than identity because most of the surface accepts anonymous
// requests; chi's RealIP middleware must run first so r.RemoteAddr holds
// the real client address behind a proxy.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop.
// Call Stop during shutdown.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware returns the HTTP middleware enforcing the limit. Over-limit
// requests get 429 with a Retry-After hint.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r)) {
				retryAfter := int(rl.config.Window.Seconds() / float64(rl.config.Requests))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"message": "too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		// Refill rate spreads the window allowance evenly; the burst is
		// the full allowance so a fresh client is never throttled early.
		perSecond := rate.Limit(float64(rl.config.Requests) / rl.config.Window.Seconds())
		entry = &ipLimiter{limiter: rate.NewLimiter(perSecond, rl.config.Requests)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanupLoop drops entries idle for more than one full window, so the map
// does not grow with every IP ever seen.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.config.Window)
			rl.mu.Lock()
			for ip, entry := range rl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
