package domain

import "errors"

// Messages shared by DTOs, entities and use-cases.
const (
	MsgInvalidData         = "Invalid data"
	MsgInvalidDataReceived = "Invalid data received"
	MsgUserNotCreated      = "User not created"
	MsgUserNotFound        = "User not found"
	MsgInvalidCredentials  = "Invalid credentials"
)

// ErrInvalidData is returned by DTO constructors when a required field is empty.
var ErrInvalidData = errors.New(MsgInvalidData)

// RegisterDto is the validated input of the register use-case.
// It is immutable once built; read it through its getters.
type RegisterDto struct {
	name     string
	lastname string
	email    string
	password string
}

// NewRegisterDto builds a RegisterDto. Every field must be non-empty.
func NewRegisterDto(name, lastname, email, password string) (RegisterDto, error) {
	if name == "" || lastname == "" || email == "" || password == "" {
		return RegisterDto{}, ErrInvalidData
	}
	return RegisterDto{name: name, lastname: lastname, email: email, password: password}, nil
}

func (d RegisterDto) Name() string     { return d.name }
func (d RegisterDto) Lastname() string { return d.lastname }
func (d RegisterDto) Email() string    { return d.email }
func (d RegisterDto) Password() string { return d.password }

// DisplayName joins name and last name the way identity providers store it.
func (d RegisterDto) DisplayName() string { return d.name + " " + d.lastname }

// LoginDto is the validated input of the login use-case.
type LoginDto struct {
	email    string
	password string
}

// NewLoginDto builds a LoginDto. Both fields must be non-empty.
func NewLoginDto(email, password string) (LoginDto, error) {
	if email == "" || password == "" {
		return LoginDto{}, ErrInvalidData
	}
	return LoginDto{email: email, password: password}, nil
}

func (d LoginDto) Email() string    { return d.email }
func (d LoginDto) Password() string { return d.password }
