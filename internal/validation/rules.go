package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validator tags.
const (
	TagPersonName     = "person_name"
	TagSecurePassword = "secure_password"
)

// PasswordSymbols lists the special characters accepted in passwords.
const PasswordSymbols = "@$!%*?&#"

var (
	// NameRegex accepts letters (including Latin-1 accented ones) and spaces.
	NameRegex = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ ]+$`)

	// passwordCharset is the closed alphabet for passwords. RE2 has no
	// lookahead, so the per-class requirements are checked separately.
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&#]+$`)
)

// RegisterAuthValidators registers the custom tags used by the auth schemas.
func RegisterAuthValidators(v *validator.Validate) error {
	if err := v.RegisterValidation(TagPersonName, validatePersonName); err != nil {
		return err
	}
	return v.RegisterValidation(TagSecurePassword, validateSecurePassword)
}

func validatePersonName(fl validator.FieldLevel) bool {
	return NameRegex.MatchString(fl.Field().String())
}

func validateSecurePassword(fl validator.FieldLevel) bool {
	return IsSecurePassword(fl.Field().String())
}

// IsSecurePassword reports whether p has at least one lowercase letter, one
// uppercase letter, one digit and one symbol from PasswordSymbols, and
// contains nothing else.
func IsSecurePassword(p string) bool {
	if !passwordCharset.MatchString(p) {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
