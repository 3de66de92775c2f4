package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/authportal/authportal-go/internal/cache"
)

const visitorIdle = 10 * time.Minute

// RateLimiter limits requests per client, falling back to the remote IP
// for requests that carry no client ID.
type RateLimiter struct {
	visitors *cache.Memory[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst. Visitors idle for ten minutes are forgotten.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: cache.NewMemory[string, *rate.Limiter](),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	return rl.visitors.GetOrSet(key, func() *rate.Limiter {
		return rate.NewLimiter(rl.rps, rl.burst)
	}, visitorIdle)
}

// Allow reports whether the visitor identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// StartJanitor forgets idle visitors until ctx is done.
func (rl *RateLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	rl.visitors.StartJanitor(ctx, interval)
}

// Limit is the middleware form of the limiter.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(visitorKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func visitorKey(r *http.Request) string {
	if id, ok := ClientIDFromContext(r.Context()); ok {
		return "client:" + id
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
