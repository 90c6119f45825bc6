package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-auth-service/internal/config"
	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/http/middleware"
	"github.com/tbourn/go-auth-service/internal/http/response"
	"github.com/tbourn/go-auth-service/internal/identity"
	"github.com/tbourn/go-auth-service/internal/repo"
	"github.com/tbourn/go-auth-service/internal/services"
)

// --- helpers ---

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		APIVersion:  "1.2.3",
		RateRPS:     100,
		RateBurst:   100,
		Security:    config.SecurityConfig{EnableHSTS: false},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newLocalBackend(t *testing.T) *identity.LocalStore {
	t.Helper()
	db, err := repo.OpenSQLite(":memory:", repo.WithSilentLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := identity.NewLocalStore(db, strings.Repeat("k", 32), time.Minute)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	s.Cost = bcrypt.MinCost
	return s
}

func newRouter(t *testing.T, backend services.AuthRepository, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, backend, cfg)
	return r
}

func serve(r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func errorEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope %q: %v", w.Body.String(), err)
	}
	if env.Status != response.StatusError || env.Code != w.Code {
		t.Fatalf("envelope status/code mismatch: %+v vs HTTP %d", env, w.Code)
	}
	return env
}

const registerBody = `{"name":"Ana","lastname":"García","email":"Ana@Example.com","password":"Password123!"}`

// panicBackend blows up inside the use-case.
type panicBackend struct{}

func (panicBackend) Register(context.Context, domain.RegisterDto) (*domain.AuthUser, error) {
	panic("boom")
}

func (panicBackend) Login(context.Context, domain.LoginDto) (*domain.AuthUser, error) {
	panic("boom")
}

// --- tests ---

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, newLocalBackend(t), testConfig())

	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected Cache-Control: no-store, got %q", w.Header().Get("Cache-Control"))
	}

	w = serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/health"},
		{http.MethodGet, "/api/auth/login"},
		{http.MethodPost, "/api/auth/register/"},
		{http.MethodGet, "/api"},
	} {
		w = serve(r, tc.method, tc.path, "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s expected 404, got %d", tc.method, tc.path, w.Code)
		}
		env := errorEnvelope(t, w)
		if env.Errors[0].Message != "Route not found" || env.Meta.Version != "1.2.3" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		if env.Meta.RequestID != w.Header().Get(middleware.RequestIDHeader) {
			t.Fatalf("meta.requestId must match the header")
		}
	}

	// swagger disabled by default
	if w = serve(r, http.MethodGet, "/api-docs/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(t, newLocalBackend(t), cfg)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), middleware.RequestIDHeader) {
		t.Fatalf("X-Request-ID should be exposed, got %q", w.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestRegisterRoutes_AuthFlowOverLocalStore(t *testing.T) {
	r := newRouter(t, newLocalBackend(t), testConfig())

	w := serve(r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d body=%s", w.Code, w.Body.String())
	}
	var created response.SuccessEnvelope[domain.AuthUser]
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.User.Email != "ana@example.com" || created.Data.AccessToken == "" || created.Meta.Version != "1.2.3" {
		t.Fatalf("unexpected register payload %+v", created)
	}

	// duplicate → provider-style bad request
	w = serve(r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register = %d", w.Code)
	}
	if env := errorEnvelope(t, w); env.Errors[0].Code != identity.CodeUserExists {
		t.Fatalf("unexpected envelope %+v", env)
	}

	w = serve(r, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"Password123!"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d body=%s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"Wrong123!x"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", w.Code)
	}
	if env := errorEnvelope(t, w); env.Errors[0].Message != domain.MsgInvalidCredentials {
		t.Fatalf("unexpected envelope %+v", env)
	}

	w = serve(r, http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"Password123!"}`, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid login = %d", w.Code)
	}
	if env := errorEnvelope(t, w); env.Errors[0].Field != "email" || env.Errors[0].Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRegisterRoutes_RootEnvelope(t *testing.T) {
	r := newRouter(t, newLocalBackend(t), testConfig())

	w := serve(r, http.MethodGet, "/api/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/ = %d", w.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || body.Data["message"] != "API is running" || body.Data["version"] != "1.2.3" {
		t.Fatalf("unexpected root body %+v", body)
	}
}

func TestRegisterRoutes_RateLimitOnAuthOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, newLocalBackend(t), cfg)

	login := `{"email":"ana@example.com","password":"Password123!"}`
	if w := serve(r, http.MethodPost, "/api/auth/login", login, nil); w.Code == http.StatusTooManyRequests {
		t.Fatalf("first call must pass the limiter")
	}
	w := serve(r, http.MethodPost, "/api/auth/login", login, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second call = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	if env := errorEnvelope(t, w); env.Errors[0].Code != middleware.CodeTooManyRequests {
		t.Fatalf("unexpected envelope %+v", env)
	}

	// probes are not limited
	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
			t.Fatalf("health limited: %d", w.Code)
		}
	}
}

func TestRegisterRoutes_PanicBecomesOpaque500(t *testing.T) {
	r := newRouter(t, panicBackend{}, testConfig())

	w := serve(r, http.MethodPost, "/api/auth/register", registerBody, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	env := errorEnvelope(t, w)
	if len(env.Errors) != 1 || env.Errors[0].Message != "Internal Server Error" || strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRegisterRoutes_BodyLimit(t *testing.T) {
	r := newRouter(t, newLocalBackend(t), testConfig())

	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := serve(r, http.MethodPost, "/api/auth/register", big, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if env := errorEnvelope(t, w); env.Errors[0].Code != "PAYLOAD_TOO_LARGE" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRegisterRoutes_SwaggerAndGzip(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	cfg.GzipEnabled = true
	r := newRouter(t, newLocalBackend(t), cfg)

	w := serve(r, http.MethodGet, "/api-docs/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/auth/register") {
		t.Fatalf("swagger doc = %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/health", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if g := groupWithPrefix(r, "/"); g.BasePath() != "/" {
		t.Fatalf("root group base path = %q", g.BasePath())
	}
	if g := groupWithPrefix(r, "/api"); g.BasePath() != "/api" {
		t.Fatalf("api group base path = %q", g.BasePath())
	}
}
