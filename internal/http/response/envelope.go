// Package response builds the uniform JSON envelopes returned by every
// endpoint.
//
// Success:
//
//	{
//	  "status": "success",
//	  "data": { ... },
//	  "meta": { "requestId": "…", "timestamp": "2025-01-01T00:00:00.000Z", "version": "1.0.0" }
//	}
//
// Error:
//
//	{
//	  "status": "error",
//	  "code": 422,
//	  "errors": [{ "message": "Must be a valid email", "field": "email", "code": "VALIDATION_ERROR" }],
//	  "meta": { … }
//	}
//
// All builders are pure: they perform no I/O and only fill in defaults for
// meta fields the caller left empty.
package response

import (
	"math"
	"time"

	"github.com/tbourn/go-auth-service/internal/domain"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// DefaultVersion is reported in meta.version when the caller gives none.
	DefaultVersion = "1.0.0"

	// TimestampLayout is ISO-8601 in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// now is swapped in tests.
var now = time.Now

// Pagination describes one page of a collection.
type Pagination struct {
	Page       int `json:"page"       example:"1"`
	Limit      int `json:"limit"      example:"20"`
	Total      int `json:"total"      example:"42"`
	TotalPages int `json:"totalPages" example:"3"`
}

// Meta accompanies every envelope.
type Meta struct {
	RequestID  string      `json:"requestId"            example:"123e4567-e89b-12d3-a456-426614174000"`
	Timestamp  string      `json:"timestamp"            example:"2025-01-01T12:00:00.000Z"`
	Version    string      `json:"version"              example:"1.0.0"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// SuccessEnvelope wraps a successful result.
type SuccessEnvelope[T any] struct {
	Status string `json:"status" example:"success"`
	Data   T      `json:"data"`
	Meta   Meta   `json:"meta"`
}

// ErrorEnvelope wraps a failure. Code mirrors the HTTP status.
type ErrorEnvelope struct {
	Status string              `json:"status" example:"error"`
	Code   int                 `json:"code"   example:"422"`
	Errors []domain.FieldError `json:"errors"`
	Meta   Meta                `json:"meta"`
}

// NewMeta returns meta for the given request id and version, stamped now.
func NewMeta(requestID, version string) Meta {
	return withDefaults(Meta{RequestID: requestID, Version: version})
}

// Timestamp formats t the way envelopes report it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func withDefaults(m Meta) Meta {
	if m.Timestamp == "" {
		m.Timestamp = Timestamp(now())
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	return m
}

// Success builds a success envelope. data is carried as is.
func Success[T any](data T, meta Meta) SuccessEnvelope[T] {
	return SuccessEnvelope[T]{Status: StatusSuccess, Data: data, Meta: withDefaults(meta)}
}

// Error builds an error envelope. Pagination is never reported on errors.
func Error(code int, errs []domain.FieldError, meta Meta) ErrorEnvelope {
	meta = withDefaults(meta)
	meta.Pagination = nil
	if errs == nil {
		errs = []domain.FieldError{}
	}
	return ErrorEnvelope{Status: StatusError, Code: code, Errors: errs, Meta: meta}
}

// Paginated builds a success envelope for one page of items and attaches
// meta.pagination with TotalPages = ceil(total/limit). A non-positive limit
// yields zero pages.
func Paginated[T any](items []T, page, limit, total int, meta Meta) SuccessEnvelope[[]T] {
	if items == nil {
		items = []T{}
	}
	meta = withDefaults(meta)
	meta.Pagination = &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}
	return SuccessEnvelope[[]T]{Status: StatusSuccess, Data: items, Meta: meta}
}

func totalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
