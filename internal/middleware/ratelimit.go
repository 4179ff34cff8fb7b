package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenBucket implements token bucket rate limiting
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	perSecond  float64
	lastRefill time.Time
	lastUsed   time.Time
}

func NewTokenBucket(capacity int, perMinute int, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		perSecond:  float64(perMinute) / 60,
		lastRefill: now,
		lastUsed:   now,
	}
}

// Allow takes one token if available. When it cannot, it also returns how
// long until the next token.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastRefill).Seconds(); elapsed > 0 {
		tb.tokens += elapsed * tb.perSecond
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}
	tb.lastUsed = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	if tb.perSecond <= 0 {
		return false, time.Minute
	}
	wait := time.Duration((1 - tb.tokens) / tb.perSecond * float64(time.Second))
	return false, wait
}

// RateLimiter keeps one bucket per caller key
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	capacity  int
	perMinute int
	now       func() time.Time
}

func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &RateLimiter{
		buckets:   make(map[string]*TokenBucket),
		capacity:  capacity,
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = NewTokenBucket(rl.capacity, rl.perMinute, now)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()
	return bucket.Allow(now)
}

// Prune drops buckets idle for longer than idle.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, bucket := range rl.buckets {
		bucket.mu.Lock()
		stale := now.Sub(bucket.lastUsed) > idle
		bucket.mu.Unlock()
		if stale {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// Run prunes idle buckets until stop is closed.
func (rl *RateLimiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Prune(10 * time.Minute)
		}
	}
}

// RateLimitKey identifies the caller: the bearer token when present,
// otherwise the client IP.
func RateLimitKey(r *http.Request) string {
	if tok := GetTokenFromContext(r.Context()); tok != "" {
		return "token:" + tok
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimitMiddleware limits each caller to burst requests at once and
// perMinute sustained.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(RateLimitKey(r))
			if !ok {
				secs := int(wait.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"status":  "error",
					"message": "Too many analyses requested. Please try again shortly.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
