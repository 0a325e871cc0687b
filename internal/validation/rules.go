// Package validation provides custom jellydator/validation rules shared by
// every module's HTTP request DTOs.
package validation

import (
	"encoding/base64"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// WrapValidationError wraps a jellydator/validation error as a
// KindValidation domain error, the one shape httputil.HandleErrorGin knows
// how to map to 400.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.KindValidation, err, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool { return strings.TrimSpace(s) != "" },
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that a string contains no whitespace at all —
// names are used as path segments and lookup keys, not display labels.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool { return !strings.ContainsAny(s, " \t\n\r") },
	validation.NewError("validation_no_whitespace", "must not contain whitespace"),
)

// NoAtSign validates that a string contains no "@" character, reserved for
// a future addressing scheme.
var NoAtSign = validation.NewStringRuleWithError(
	func(s string) bool { return !strings.Contains(s, "@") },
	validation.NewError("validation_no_at_sign", "must not contain '@'"),
)

// Base64 validates that a string is valid standard base64-encoded data.
var Base64 = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// Base64MinDecodedLength validates that a base64-encoded string decodes to
// at least n bytes. Assumes Base64 already validated the encoding; a
// decode failure here is reported generically rather than duplicating that
// check.
func Base64MinDecodedLength(n int) validation.Rule {
	return validation.By(func(value any) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_base64_type", "must be a string")
		}
		if s == "" {
			return nil
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return validation.NewError("validation_base64", "must be valid base64-encoded data")
		}
		if len(decoded) < n {
			return validation.NewError("validation_base64_min_length", "decoded value is too short")
		}
		return nil
	})
}
