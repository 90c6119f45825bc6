package response

import (
	"net/http"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// MsgInternalServerError is the only detail clients see for unrecognized failures.
const MsgInternalServerError = "Internal Server Error"

// Handle converts any failure into an error envelope. It is the only place
// where failures are mapped to HTTP statuses.
//
// A *domain.AppError (directly or wrapped in an error chain) yields its
// kind's status and serialized errors. Anything else, including nil,
// strings, plain errors and recovered panic values, yields an opaque 500.
func Handle(failure any, requestID, version string) ErrorEnvelope {
	meta := Meta{RequestID: requestID, Version: version}

	if err, ok := failure.(error); ok {
		if ae, ok := domain.AsAppError(err); ok {
			return Error(ae.Status(), ae.Serialize(), meta)
		}
	}
	return Error(http.StatusInternalServerError,
		[]domain.FieldError{{Message: MsgInternalServerError}}, meta)
}
