// Package httpapi wires the HTTP transport (Gin) to the auth use-cases,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, metrics, the central error
// stage, panic recovery, CORS, security headers and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-auth-service/docs"
	"github.com/tbourn/go-auth-service/internal/config"
	"github.com/tbourn/go-auth-service/internal/http/handlers"
	"github.com/tbourn/go-auth-service/internal/http/middleware"
	"github.com/tbourn/go-auth-service/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsExpose  = []string{middleware.RequestIDHeader, "Content-Length", "Retry-After"}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. backend is the identity backend the register and login use-cases
// delegate to.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: server-generated correlation id
//  3. Logger: request-scoped zerolog logger with redaction
//  4. Metrics: sees the final status written by the Errors stage
//  5. Gzip (optional)
//  6. Errors: renders c.Errors into the error envelope
//  7. Recovery: turns panics into errors for stage 6
//  8. Body size limiter
//  9. CORS and security headers
//
// The rate limiter only guards the /auth group.
func RegisterRoutes(r *gin.Engine, backend services.AuthRepository, cfg config.Config) {
	// Trailing-slash mismatches get the NotFound envelope, not a bare redirect.
	r.RedirectTrailingSlash = false

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Metrics())
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	r.Use(middleware.Errors(cfg.APIVersion))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    true,
	}))

	h := handlers.New(
		services.NewRegisterUser(backend),
		services.NewLoginUser(backend),
		cfg.APIVersion,
	)

	// Unmatched routes, any method, end up as a NotFound envelope.
	r.NoRoute(h.NotFound)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		docs.SwaggerInfo.Version = cfg.APIVersion
		r.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.GET("/", h.Root)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByRouteAndIP())
	auth := api.Group("/auth", rl.Handler())
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// corsMiddleware returns the CORS stage. Without an allowlist every origin
// is accepted (credentials stay off); otherwise only listed origins are
// echoed back.
func corsMiddleware(cc config.CORSConfig) []gin.HandlerFunc {
	if len(cc.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(cc.AllowedOrigins))
	for _, o := range cc.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cc.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body at maxBytes. Reads past the cap fail with
// *http.MaxBytesError, which the handlers report as a bad request.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
