// Package services holds the use-cases of the authentication service.
//
// Each use-case performs exactly one business action against an
// AuthRepository (an identity backend). Use-cases do not translate errors:
// backends already return *domain.AppError values for expected rejections,
// and anything else travels up unchanged to the central error stage.
package services

import (
	"context"
	"fmt"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// AuthRepository is the identity backend contract.
type AuthRepository interface {
	// Register creates an account. The result carries tokens only when the
	// backend opened a session right away.
	Register(ctx context.Context, dto domain.RegisterDto) (*domain.AuthUser, error)

	// Login authenticates with email and password and opens a session.
	Login(ctx context.Context, dto domain.LoginDto) (*domain.AuthUser, error)
}

// RegisterUser signs a new user up.
type RegisterUser struct {
	Repo AuthRepository
}

// NewRegisterUser constructs the register use-case.
func NewRegisterUser(r AuthRepository) *RegisterUser { return &RegisterUser{Repo: r} }

// Execute registers the user described by dto.
func (u *RegisterUser) Execute(ctx context.Context, dto domain.RegisterDto) (*domain.AuthUser, error) {
	au, err := u.Repo.Register(ctx, dto)
	if err != nil {
		return nil, err
	}
	if au == nil {
		return nil, fmt.Errorf("register %s: %w", dto.Email(), ErrUserNotCreated)
	}
	return au, nil
}

// LoginUser authenticates an existing user.
type LoginUser struct {
	Repo AuthRepository
}

// NewLoginUser constructs the login use-case.
func NewLoginUser(r AuthRepository) *LoginUser { return &LoginUser{Repo: r} }

// Execute authenticates with the credentials in dto.
func (u *LoginUser) Execute(ctx context.Context, dto domain.LoginDto) (*domain.AuthUser, error) {
	au, err := u.Repo.Login(ctx, dto)
	if err != nil {
		return nil, err
	}
	if au == nil || !au.HasSession() {
		return nil, fmt.Errorf("login %s: %w", dto.Email(), domain.ErrInvalidDataReceived)
	}
	return au, nil
}
