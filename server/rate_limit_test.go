package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zcrmhq/auth-gateway/internal/config"
)

func newMiniredisLimiter(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRateLimiter(client, limit, time.Minute), mr
}

func TestRateLimiterAllow(t *testing.T) {
	limiter, _ := newMiniredisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:user-1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "user:user-1")
	require.NoError(t, err)
	require.False(t, allowed)

	// Another caller has its own counter.
	allowed, err = limiter.Allow(ctx, "user:user-2")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter, mr := newMiniredisLimiter(t, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(2 * time.Minute)

	allowed, err = limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimitMiddlewareThrottles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	limiter, _ := newMiniredisLimiter(t, 2)

	t.Setenv("AUTH_SECRET", testAuthSecret)
	t.Setenv("BACKEND_URL", srv.URL)
	s := newLimitedServer(t, limiter)

	// Anonymous callers share the per-address counter.
	for i := 0; i < 2; i++ {
		rec := do(s, httptest.NewRequest(http.MethodPost, RouteAuthRefresh, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := do(s, httptest.NewRequest(http.MethodPost, RouteAuthRefresh, nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "rate_limited", body["error"])
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	limiter, mr := newMiniredisLimiter(t, 1)
	mr.Close()

	t.Setenv("AUTH_SECRET", testAuthSecret)
	t.Setenv("BACKEND_URL", srv.URL)
	s := newLimitedServer(t, limiter)

	// With the limiter backend down, requests still go through.
	rec := do(s, httptest.NewRequest(http.MethodPost, RouteAuthRefresh, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newLimitedServer(t *testing.T, limiter *RateLimiter) *Server {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)

	s, err := New(cfg, WithIdentityProvider(&fakeIdentityProvider{}), WithRateLimiter(limiter))
	require.NoError(t, err)
	return s
}
