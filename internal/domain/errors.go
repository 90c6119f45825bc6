package domain

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError. The HTTP status of an error is derived from
// its Kind only; call sites never pick a status themselves.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindValidation
	KindUnauthorized
	KindNotFound
	KindTooManyRequests
)

// String returns the lowercase name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "unknown"
	}
}

// StatusOf maps an error kind to its fixed HTTP status code.
// Unknown kinds map to 500.
func StatusOf(k Kind) int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is the client-facing description of a single failure.
// Message is always set; Field and Code are omitted from JSON when empty.
type FieldError struct {
	Message string `json:"message"         example:"Must be a valid email"`
	Field   string `json:"field,omitempty" example:"email"`
	Code    string `json:"code,omitempty"  example:"VALIDATION_ERROR"`
}

// AppError is a recognized application failure. It carries everything the
// central error handler needs to produce an error envelope.
//
// Err optionally holds the underlying cause; it is logged but never sent
// to clients.
type AppError struct {
	Kind    Kind
	Message string
	Field   string
	Code    string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's kind.
func (e *AppError) Status() int { return StatusOf(e.Kind) }

// Serialize returns the client-facing error list. It always holds exactly
// one entry.
func (e *AppError) Serialize() []FieldError {
	return []FieldError{{Message: e.Message, Field: e.Field, Code: e.Code}}
}

// NewBadRequestError builds a 400 error. Code is optional.
func NewBadRequestError(message string, code ...string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message, Code: first(code)}
}

// NewValidationError builds a 422 error tied to a field (dotted path).
func NewValidationError(message, field, code string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Field: field, Code: code}
}

// NewUnauthorizedError builds a 401 error. Code is optional.
func NewUnauthorizedError(message string, code ...string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message, Code: first(code)}
}

// NewNotFoundError builds a 404 error.
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewTooManyRequestsError builds a 429 error.
func NewTooManyRequestsError(message, code string) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: message, Code: code}
}

// WithCause attaches an underlying error for logging and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// AsAppError reports whether err (or anything it wraps) is an *AppError.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
