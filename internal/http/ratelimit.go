package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	defaultLimiterClients = 4096
	defaultLimiterIdle    = 10 * time.Minute
)

// RateLimiter hands out one token bucket per client address. Buckets of
// clients that stay quiet for the idle period are forgotten.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A burst below one is raised to one.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](defaultLimiterClients, nil, defaultLimiterIdle),
	}
}

// Allow consumes a token from the bucket of client.
func (l *RateLimiter) Allow(client string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(client, limiter)
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RateLimit rejects requests over the limit with 429. Clients are keyed by
// the remote address host; forwarding headers are not trusted.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	responder := newResponder(nil)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddress(r)) {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				responder.writeError(r.Context(), w, http.StatusTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
