// Package domain defines the core types of the authentication service:
// user entities returned by identity backends, the validated request DTOs,
// the application error taxonomy, and the persistence model used by the
// local identity store.
package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidDataReceived is returned when an identity backend hands back a
// user or session that lacks required attributes.
var ErrInvalidDataReceived = errors.New(MsgInvalidDataReceived)

// User is the public view of an account as returned by the API.
//
// Fields:
//   - ID: provider-issued identifier (UUID).
//   - Email: normalized (lowercase) email address.
//   - Name: display name ("name lastname").
//   - EmailVerified: whether the provider has confirmed the address.
//   - Phone: optional phone number; omitted when empty.
type User struct {
	ID            string `json:"id"             example:"2b1e4d8c-7c1a-4f0e-9a55-8f3f5a0c1d2e"`
	Email         string `json:"email"          example:"ana@example.com"`
	Name          string `json:"name"           example:"Ana García"`
	EmailVerified bool   `json:"email_verified" example:"false"`
	Phone         string `json:"phone,omitempty"`
}

// NewUser validates the mandatory attributes of a user.
func NewUser(id, email, name string, emailVerified bool, phone string) (*User, error) {
	if id == "" || email == "" || name == "" {
		return nil, ErrInvalidDataReceived
	}
	return &User{ID: id, Email: email, Name: name, EmailVerified: emailVerified, Phone: phone}, nil
}

// AuthUser is a user together with the session tokens issued for it.
// Tokens are empty when the provider did not open a session, e.g. while an
// email confirmation is pending after sign-up.
type AuthUser struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken,omitempty"  example:"eyJhbGciOiJIUzI1NiIs..."`
	RefreshToken string `json:"refreshToken,omitempty" example:"v1.MRjvE..."`
}

// NewAuthUser wraps a user with a session. Both tokens are required.
func NewAuthUser(u User, accessToken, refreshToken string) (*AuthUser, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, ErrInvalidDataReceived
	}
	return &AuthUser{User: u, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// HasSession reports whether tokens were issued.
func (a AuthUser) HasSession() bool { return a.AccessToken != "" }

// UserRecord is the persisted account of the local identity store.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: unique, lowercase login identifier.
//   - Name / Lastname: as submitted at registration.
//   - PasswordHash: bcrypt hash; never serialized.
//   - EmailVerified: always false for locally registered users.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type UserRecord struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Email         string         `json:"email"          gorm:"type:varchar(100);not null;uniqueIndex:ux_users_email"`
	Name          string         `json:"name"           gorm:"type:varchar(50);not null"`
	Lastname      string         `json:"lastname"       gorm:"type:varchar(50);not null"`
	PasswordHash  string         `json:"-"              gorm:"type:varchar(255);not null"`
	EmailVerified bool           `json:"email_verified" gorm:"not null;default:false"`
	Phone         string         `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for UserRecord.
func (UserRecord) TableName() string { return "users" }

// DisplayName joins name and last name.
func (r UserRecord) DisplayName() string { return r.Name + " " + r.Lastname }

// ToUser converts the record into its public view.
func (r UserRecord) ToUser() (*User, error) {
	return NewUser(r.ID, r.Email, r.DisplayName(), r.EmailVerified, r.Phone)
}
