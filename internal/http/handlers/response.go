// Package handlers provides the HTTP handlers of the public API.
//
// Handlers are transport-thin: they decode the body, run schema validation,
// call a use-case and wrap the result in the success envelope. Failures are
// never rendered here; they are forwarded with middleware.Fail to the
// central Errors stage, which owns the error envelope.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/http/middleware"
	"github.com/tbourn/go-auth-service/internal/http/response"
)

// ok writes data inside the success envelope.
func ok[T any](c *gin.Context, status int, data T, version string) {
	c.JSON(status, response.Success(data, response.NewMeta(middleware.GetRequestID(c), version)))
}

// fail forwards err to the Errors stage.
func fail(c *gin.Context, err error) { middleware.Fail(c, err) }

// readBody decodes the request body into a generic JSON value for schema
// validation. An empty body yields nil; the schema reports it.
func readBody(c *gin.Context) (any, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewBadRequestError(MsgBodyTooLarge, CodeBodyTooLarge)
		}
		return nil, domain.NewBadRequestError(MsgInvalidJSON, CodeInvalidJSON).WithCause(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, domain.NewBadRequestError(MsgInvalidJSON, CodeInvalidJSON).WithCause(err)
	}
	return v, nil
}
