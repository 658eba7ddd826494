package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	limiter := NewLimiter(10, 2)

	if !limiter.Allow("scraper") {
		t.Error("First request should be allowed")
	}
	if !limiter.Allow("scraper") {
		t.Error("Second request should be allowed")
	}
	if limiter.Allow("scraper") {
		t.Error("Third request should exceed the burst")
	}

	// Independent bucket per key.
	if !limiter.Allow("other") {
		t.Error("Different key should have its own bucket")
	}

	// 10 rps refills one token per 100ms.
	time.Sleep(150 * time.Millisecond)
	if !limiter.Allow("scraper") {
		t.Error("Request after refill should be allowed")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter := NewLimiter(10, 1)
	handler := limiter.Middleware(func(*http.Request) string { return "fixed" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if first.Code != http.StatusOK {
		t.Errorf("First request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Second request should be limited, got %d", second.Code)
	}
}

func TestIPKeyFunc(t *testing.T) {
	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.RemoteAddr = "192.168.1.1:12345"
	if got := IPKeyFunc(direct); got != "192.168.1.1:12345" {
		t.Errorf("Expected RemoteAddr key, got %q", got)
	}

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.RemoteAddr = "127.0.0.1:12345"
	proxied.Header.Set("X-Forwarded-For", "203.0.113.1")
	if got := IPKeyFunc(proxied); got != "203.0.113.1" {
		t.Errorf("Expected forwarded key, got %q", got)
	}
}
