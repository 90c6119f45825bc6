package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecurity(t, SecurityOptions{}, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))

	want := map[string]string{
		"X-Content-Type-Options":            "nosniff",
		"X-Frame-Options":                   "DENY",
		"Referrer-Policy":                   "no-referrer",
		"Cross-Origin-Opener-Policy":        "same-origin",
		"Cross-Origin-Resource-Policy":      "same-origin",
		"X-Permitted-Cross-Domain-Policies": "none",
		"X-DNS-Prefetch-Control":            "off",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Fatalf("%s = %q; want %q", k, got, v)
		}
	}
	if h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected optional headers: %#v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != "" {
		t.Fatalf("expose header set without a request id")
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	cases := []struct {
		name, existing, want string
	}{
		{"fresh", "", "X-Request-ID"},
		{"append", "Foo", "Foo, X-Request-ID"},
		{"no duplicate", "x-request-id, Foo", "x-request-id, Foo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header(RequestIDHeader, "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			h := serveSecurity(t, SecurityOptions{}, pre, httptest.NewRequest(http.MethodGet, "/ok", nil))
			if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_NoStoreAndHSTS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.TLS = &tls.ConnectionState{}
	h := serveSecurity(t, SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, NoStore: true}, nil, req)

	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" {
		t.Fatalf("missing cache headers: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Fatalf("unexpected HSTS %q", got)
	}

	// Plain HTTP never gets HSTS, default max-age applies behind a TLS proxy.
	plain := serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS sent over plain HTTP")
	}
	proxied := httptest.NewRequest(http.MethodGet, "/ok", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	h = serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, proxied)
	if got := h.Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("unexpected default HSTS %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain HTTP should not be https")
	}
	req.TLS = &tls.ConnectionState{}
	if !isHTTPS(req) {
		t.Fatalf("TLS request should be https")
	}
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(req3) {
		t.Fatalf("X-Forwarded-Proto=https should be https")
	}
}
