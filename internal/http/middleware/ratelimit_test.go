package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByRouteAndIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got string
	r.POST("/api/auth/login", func(c *gin.Context) { got = KeyByRouteAndIP()(c) })

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got != "/api/auth/login|ip:203.0.113.9" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewRateLimiter_BurstCoercion_AndGetVisitorReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByRouteAndIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if lim == nil {
		t.Fatalf("expected limiter")
	}
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_getVisitor_GC(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByRouteAndIP())
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = gcEvery - 1
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	_, existsOld := rl.visitors["old"]
	_, existsNew := rl.visitors["new"]
	rl.mu.Unlock()

	if existsOld {
		t.Fatalf("expected 'old' visitor to be evicted by opportunistic GC")
	}
	if !existsNew {
		t.Fatalf("expected 'new' visitor to be created")
	}
}

func TestRateLimiter_retryAfter(t *testing.T) {
	cases := map[float64]string{0: "60", 0.5: "2", 1: "1", 50: "1"}
	for rps, want := range cases {
		if got := NewRateLimiter(rps, 1, nil).retryAfter(); got != want {
			t.Fatalf("rps=%v retryAfter=%q; want %q", rps, got, want)
		}
	}
}

func TestRateLimiter_Handler_DeniesWithEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1.0, 1, KeyByRouteAndIP())

	r := gin.New()
	r.Use(RequestID(), Errors("1.0.0"))
	r.Use(rl.Handler())
	r.POST("/login", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}

	var body struct {
		Status string `json:"status"`
		Code   int    `json:"code"`
		Errors []struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"errors"`
		Meta struct {
			RequestID string `json:"requestId"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Status != "error" || body.Code != 429 || len(body.Errors) != 1 {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.Errors[0].Message != MsgTooManyRequests || body.Errors[0].Code != CodeTooManyRequests {
		t.Fatalf("unexpected error entry: %+v", body.Errors[0])
	}
	if body.Meta.RequestID == "" || body.Meta.RequestID != w2.Header().Get(RequestIDHeader) {
		t.Fatalf("meta.requestId %q does not match header", body.Meta.RequestID)
	}
}
