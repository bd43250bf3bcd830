package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 2, KeyByUserOrIP()) // effectively no refill
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("second request: %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_SeparateBucketsPerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Key on a header so the test can steer requests into distinct buckets.
	rl := NewRateLimiter(0.0001, 1, func(c *gin.Context) string {
		return c.GetHeader("X-Test-Key")
	})
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(key string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Test-Key", key)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if c := do("a"); c != http.StatusOK {
		t.Fatalf("a#1: %d", c)
	}
	if c := do("a"); c != http.StatusTooManyRequests {
		t.Fatalf("a#2: %d", c)
	}
	// A different key still has its full burst.
	if c := do("b"); c != http.StatusOK {
		t.Fatalf("b#1: %d", c)
	}
}

func TestNewRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d", rl.burst)
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFn := KeyByUserOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := keyFn(c); got != "ip:192.0.2.1" {
		t.Fatalf("anonymous key = %q", got)
	}

	c.Set(userIDKey, "u1")
	if got := keyFn(c); got != "user:u1" {
		t.Fatalf("authenticated key = %q", got)
	}
}
