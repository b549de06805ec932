package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLocalFixedWindowLimiter(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	allowed, retryAfter, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed {
		t.Fatal("fourth request should be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}

	// A different client is not throttled.
	if allowed, _, _ := limiter.Allow(ctx, "5.6.7.8", 3, time.Minute); !allowed {
		t.Fatal("other client should be allowed")
	}
}

func TestRateLimiterMiddlewareThrottles(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, "test")
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1000"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestRateLimiterFailureModes(t *testing.T) {
	failing := limiterFunc(func(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
		return false, 0, errors.New("backend down")
	})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	open := NewDistributedRateLimiter(failing, 1, time.Minute, FailOpen, "test").Middleware()(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("fail-open should pass through, got %d", rec.Code)
	}

	closed := NewDistributedRateLimiter(failing, 1, time.Minute, FailClosed, "test").Middleware()(ok)
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fail-closed should reject, got %d", rec.Code)
	}
}

type limiterFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)

func (f limiterFunc) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	return f(ctx, key, limit, window)
}

func newRedisLimiterForTest(t *testing.T) *RedisFixedWindowLimiter {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})
	return NewRedisFixedWindowLimiter(client, "rl_test")
}

func TestRedisFixedWindowLimiterAllowDeny(t *testing.T) {
	limiter := newRedisLimiterForTest(t)
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "client", 1, time.Second)
	if err != nil {
		t.Fatalf("allow first: %v", err)
	}
	if !allowed {
		t.Fatal("first request should be allowed")
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "client", 1, time.Second)
	if err != nil {
		t.Fatalf("allow second: %v", err)
	}
	if allowed {
		t.Fatal("second request should be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}
}

func TestRedisFixedWindowLimiterKeyNamespace(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})

	limiter := NewRedisFixedWindowLimiter(client, "")
	if _, _, err := limiter.Allow(context.Background(), "10.0.0.9", 5, time.Second); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !m.Exists("harvesthub:ratelimit:10.0.0.9") {
		t.Fatalf("counter missing from app namespace, keys: %v", m.Keys())
	}
}

func TestRedisFixedWindowLimiterNilClient(t *testing.T) {
	limiter := NewRedisFixedWindowLimiter(nil, "")
	if _, _, err := limiter.Allow(context.Background(), "k", 1, time.Second); err == nil {
		t.Fatal("expected nil client error")
	}
}
