package validation

import (
	"errors"
	"strings"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/careportal/internal/errors"
)

func TestPassword(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		errMsg string
	}{
		{name: "valid", input: "Sup3rSecret"},
		{name: "exactly minimum length", input: "Abcdef12"},
		{name: "maximum length", input: "Aa1" + strings.Repeat("x", 125)},
		{name: "empty is left to Required", input: ""},
		{name: "too short", input: "Ab1", errMsg: "between 8 and 128"},
		{name: "too long", input: "Aa1" + strings.Repeat("x", 126), errMsg: "between 8 and 128"},
		{name: "missing uppercase", input: "lowercase1", errMsg: "uppercase"},
		{name: "missing lowercase", input: "UPPERCASE1", errMsg: "lowercase"},
		{name: "missing number", input: "NoDigitsHere", errMsg: "number"},
		{name: "not a string", input: 12345678, errMsg: "must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password.Validate(tt.input)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestPassword_CountsCharactersNotBytes(t *testing.T) {
	// seven runes, more than eight bytes
	assert.Error(t, Password.Validate("Ünï1çöd"))
	assert.NoError(t, Password.Validate("Ünï1çödé"))
}

func TestStringRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  validation.Rule
		input string
		valid bool
	}{
		{"email plain", Email, "jdoe@example.com", true},
		{"email plus tag", Email, "j.doe+clinic@mail.example.org", true},
		{"email missing at", Email, "jdoe.example.com", false},
		{"email missing tld", Email, "jdoe@example", false},
		{"email with space", Email, "j doe@example.com", false},
		{"phone international", Phone, "+1 (555) 010-2030", true},
		{"phone digits", Phone, "5550102030", true},
		{"phone letters", Phone, "555-CALL-NOW", false},
		{"phone too short", Phone, "12345", false},
		{"username", Username, "dr.house_01", true},
		{"username too short", Username, "ab", false},
		{"username with space", Username, "john doe", false},
		{"not blank", NotBlank, " x ", true},
		{"blank", NotBlank, " \t\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStringRules_EmptySkipped(t *testing.T) {
	for _, rule := range []validation.Rule{Email, Phone, Username} {
		assert.NoError(t, rule.Validate(""))
	}
}

func TestWrapValidationError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(validation.Errors{
			"email": errors.New("must be a valid email address"),
		})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		assert.Contains(t, err.Error(), "email: must be a valid email address")
	})
}
