package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/splitr/splitr/internal/cache"
)

type stubRateLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
	ip     string
}

func (s *stubRateLimiter) CheckAuthRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error) {
	s.calls++
	s.ip = ip
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func rateLimitHandler(limiter *stubRateLimiter) http.Handler {
	mw := RateLimitAuth(RateLimitConfig{
		Logger:      discardLogger(),
		Cache:       limiter,
		AuthEnabled: true,
		AuthRPS:     5,
		AuthBurst:   10,
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitAuth_Allowed(t *testing.T) {
	limiter := &stubRateLimiter{result: &cache.RateLimitResult{
		Allowed:   true,
		Remaining: 9,
		ResetAt:   time.Now().Add(time.Second),
	}}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	rateLimitHandler(limiter).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if limiter.ip != "203.0.113.7" {
		t.Errorf("expected port-stripped client IP, got %q", limiter.ip)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("expected remaining header 9, got %q", got)
	}
}

func TestRateLimitAuth_Exceeded(t *testing.T) {
	limiter := &stubRateLimiter{result: &cache.RateLimitResult{
		Allowed:    false,
		Remaining:  0,
		ResetAt:    time.Now().Add(time.Second),
		RetryAfter: 3 * time.Second,
	}}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	rateLimitHandler(limiter).ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Errorf("expected Retry-After 3, got %q", got)
	}
}

func TestRateLimitAuth_FailsOpenOnCacheError(t *testing.T) {
	limiter := &stubRateLimiter{err: errors.New("redis: connection refused")}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	rateLimitHandler(limiter).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass on limiter failure, got %d", rec.Code)
	}
	if limiter.calls != 1 {
		t.Errorf("expected limiter consulted once, got %d", limiter.calls)
	}
}

func TestRateLimitAuth_Disabled(t *testing.T) {
	limiter := &stubRateLimiter{}
	mw := RateLimitAuth(RateLimitConfig{
		Logger: discardLogger(),
		Cache:  limiter,
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if limiter.calls != 0 {
		t.Error("limiter must not be consulted when disabled")
	}
}
