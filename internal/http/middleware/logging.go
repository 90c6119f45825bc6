// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation, structured access logging and
// panic recovery:
//
//   - RequestID() assigns a fresh UUIDv4 to every request. It is stored in
//     the Gin context, in the request's context.Context, and mirrored on the
//     X-Request-ID response header.
//   - Logger() emits one structured access log per request and attaches a
//     request-scoped zerolog.Logger for handlers (see LoggerFrom). Query
//     strings and header values are scrubbed before they are logged.
//   - Recovery() turns panics into errors on the Gin context so the Errors()
//     stage answers with the standard 500 envelope.
//
// Recommended order:
//  1. RequestID()
//  2. Logger()
//  3. Metrics()
//  4. Errors()
//  5. Recovery()
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey is the Gin context key of the request-scoped logger.
	loggerKey = "logger"
	// RequestIDHeader carries the correlation ID on responses.
	RequestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

type ctxKey struct{}

// RequestID generates a correlation identifier for each request.
//
// Incoming X-Request-ID headers are ignored: the server always issues its
// own ID so log correlation cannot be spoofed by clients.
//
// Place this first so that even early failures carry the ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := uuid.NewString()
		c.Set(requestIDKey, rid)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), rid))
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Next()
	}
}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, rid)
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(ctxKey{}).(string)
	return rid
}

// GetRequestID returns the request ID of c, or "" when RequestID() did not run.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// LogOptions configures Logger.
type LogOptions struct {
	// MaskHeaders lists extra header names whose values are replaced with
	// "[REDACTED]". Authorization, Cookie, Set-Cookie and apikey are always
	// masked.
	MaskHeaders []string
	// LogHeaders includes the scrubbed request headers in the access log.
	LogHeaders bool
}

// Logger writes a structured access log for each request and response.
//
// It stores a request-scoped zerolog.Logger carrying the request ID in the
// Gin context under "logger" and in the request's context.Context, so
// downstream code can use LoggerFrom(c) or zerolog.Ctx(ctx).
//
// Level is chosen by outcome: error for 5xx, warn for 4xx, info otherwise.
func Logger(opts LogOptions) gin.HandlerFunc {
	scrub := newRedactor(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(scrub.text(c.Request.URL.RawQuery), maxQueryLogLength)).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		var headers map[string]string
		if opts.LogHeaders {
			headers = scrub.headers(c.Request.Header)
		}

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

// Recovery intercepts panics and forwards them to the Errors() stage.
//
// The panic value and stack are logged here; clients only ever see the
// opaque 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				_ = c.Error(fmt.Errorf("panic recovered: %v", rec))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If Logger() did not run, the global logger is returned. Callers can use
// the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", GetRequestID(c)).Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
