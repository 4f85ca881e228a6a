package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-caller limiter backed by a shared Redis
// instance, so the limit holds across gateway replicas. An in-process
// counter map would not.
type RateLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

func NewRateLimiter(client redis.UniversalClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "zcrm:rl",
	}
}

// Allow reports whether the caller identified by key is within its limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	storeKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, storeKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.client.Expire(ctx, storeKey, l.window)
	}
	return count <= int64(l.limit), nil
}

// RateLimitMiddleware throttles auth endpoints per user id, falling back to
// the remote address for anonymous callers. No limiter configured means no
// throttling; a limiter backend failure fails open with a warning.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}

		key := s.limiterKey(r)
		allowed, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable, failing open")
			next(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(s.limiter.window.Seconds())))
			apiError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		next(w, r)
	}
}

func (s *Server) limiterKey(r *http.Request) string {
	if identity, err := s.authenticator.Authenticate(r); err == nil {
		return "user:" + identity.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
