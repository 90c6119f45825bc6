package services

import (
	"errors"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// ErrUserNotCreated is returned when a backend reports success for a
// sign-up but hands back no user. It is an internal inconsistency, so it
// surfaces to clients as an opaque 500.
var ErrUserNotCreated = errors.New(domain.MsgUserNotCreated)
