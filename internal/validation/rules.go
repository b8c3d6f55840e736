// Package validation holds the jellydator/validation rules shared by request DTOs
// and use cases.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/careportal/internal/errors"
)

// Password length bounds, counted in characters.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,30}$`)
)

// WrapValidationError turns a validation failure into ErrInvalidInput so handlers map it to 422.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

type passwordPolicy struct{}

// Password enforces the account password policy: 8 to 128 characters with at least one
// uppercase letter, one lowercase letter and one digit.
var Password validation.Rule = passwordPolicy{}

func (passwordPolicy) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_type", "password must be a string")
	}
	if s == "" {
		return nil
	}

	n := utf8.RuneCountInString(s)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return validation.NewError("validation_password_length", "password must be between 8 and 128 characters")
	}

	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	switch {
	case !upper:
		return validation.NewError("validation_password_uppercase", "password must contain an uppercase letter")
	case !lower:
		return validation.NewError("validation_password_lowercase", "password must contain a lowercase letter")
	case !digit:
		return validation.NewError("validation_password_number", "password must contain a number")
	}
	return nil
}

func matches(re *regexp.Regexp, code, message string) validation.StringRule {
	return validation.NewStringRuleWithError(re.MatchString, validation.NewError(code, message))
}

// Email accepts a conventional local@domain.tld address.
var Email = matches(emailRegex, "validation_email_format", "must be a valid email address")

// Phone accepts digits, spaces, dashes and parentheses with an optional leading plus sign.
var Phone = matches(phoneRegex, "validation_phone_format", "must be a valid phone number")

// Username accepts 3 to 30 letters, digits, dots, dashes or underscores.
var Username = matches(usernameRegex, "validation_username_format", "must be 3-30 letters, digits, '.', '-' or '_'")

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool { return strings.TrimSpace(s) != "" },
	validation.NewError("validation_not_blank", "must not be blank"),
)
