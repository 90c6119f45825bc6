package validation

import (
	"errors"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// RegisterSchema validates sign-up payloads.
var RegisterSchema = &Schema{
	Name: "register",
	Fields: []Field{
		{
			Path:     "name",
			Required: MsgNameRequired,
			Rules: []Rule{
				{Tag: "min=2", Message: MsgNameMinLength},
				{Tag: "max=50", Message: MsgNameMaxLength},
				{Tag: TagPersonName, Message: MsgNameInvalidFormat},
			},
		},
		{
			Path:     "lastname",
			Required: MsgLastnameRequired,
			Rules: []Rule{
				{Tag: "min=2", Message: MsgLastnameMinLength},
				{Tag: "max=50", Message: MsgLastnameMaxLength},
				{Tag: TagPersonName, Message: MsgLastnameInvalidFormat},
			},
		},
		emailField,
		passwordField,
	},
}

// LoginSchema validates sign-in payloads.
var LoginSchema = &Schema{
	Name:   "login",
	Fields: []Field{emailField, passwordField},
}

var emailField = Field{
	Path:     "email",
	Required: MsgEmailRequired,
	Rules: []Rule{
		{Tag: "email", Message: MsgEmailInvalidFormat},
		{Tag: "max=100", Message: MsgEmailMaxLength},
	},
	Lowercase: true,
}

var passwordField = Field{
	Path:     "password",
	Required: MsgPasswordRequired,
	Rules: []Rule{
		{Tag: "min=8", Message: MsgPasswordMinLength},
		{Tag: "max=128", Message: MsgPasswordMaxLength},
		{Tag: TagSecurePassword, Message: MsgPasswordInvalidFormat},
	},
}

// ValidateRegister validates a decoded register payload and builds its DTO.
func ValidateRegister(raw any) (domain.RegisterDto, error) {
	return Validate(RegisterSchema, raw, func(v Values) (domain.RegisterDto, error) {
		return domain.NewRegisterDto(v["name"], v["lastname"], v["email"], v["password"])
	})
}

// ValidateLogin validates a decoded login payload and builds its DTO.
func ValidateLogin(raw any) (domain.LoginDto, error) {
	return Validate(LoginSchema, raw, func(v Values) (domain.LoginDto, error) {
		return domain.NewLoginDto(v["email"], v["password"])
	})
}

// Validate parses raw with schema and hands the normalized values to build.
//
// Every failure is returned as a *domain.AppError: schema violations become
// Validation errors (see Translate) and a rejection from build becomes a
// BadRequest carrying build's message.
func Validate[T any](schema *Schema, raw any, build func(Values) (T, error)) (T, error) {
	var zero T

	values, err := schema.Parse(raw)
	if err != nil {
		return zero, Translate(err)
	}

	dto, err := build(values)
	if err != nil {
		if _, ok := domain.AsAppError(err); ok {
			return zero, Translate(err)
		}
		return zero, domain.NewBadRequestError(err.Error())
	}
	return dto, nil
}

// Translate converts a validation failure into an application error.
//
//   - *SchemaError: the first issue becomes a Validation error whose field is
//     the dotted path and whose code is CodeValidationError. An error with no
//     issues becomes a BadRequest.
//   - *domain.AppError: returned unchanged.
//   - anything else: BadRequest with MsgUnknownValidationError.
func Translate(err error) error {
	var se *SchemaError
	if errors.As(err, &se) {
		if len(se.Issues) == 0 {
			return domain.NewBadRequestError(MsgUnknownValidationError)
		}
		is := se.Issues[0]
		return domain.NewValidationError(is.Message, is.Path, CodeValidationError)
	}
	if ae, ok := domain.AsAppError(err); ok {
		return ae
	}
	return domain.NewBadRequestError(MsgUnknownValidationError).WithCause(err)
}
