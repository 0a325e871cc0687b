// Package dto holds the secrets module's HTTP request/response shapes.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// CreateSecretRequest is the body of POST /secret.
type CreateSecretRequest struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"` // base64-encoded plaintext
	FolderID *string `json:"folder_id,omitempty"`
}

// Validate checks the create request. Name must be at least 3 characters
// with no whitespace or "@"; Value must be non-blank base64 decoding to at
// least 8 bytes of plaintext.
func (r *CreateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			customValidation.NoAtSign,
			validation.Length(3, 255),
		),
		validation.Field(&r.Value,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
			customValidation.Base64MinDecodedLength(8),
		),
	)
}

// UpdateSecretRequest is the body of PUT /secret/:idOrName.
type UpdateSecretRequest struct {
	Value string `json:"value"`
}

// Validate checks the update request.
func (r *UpdateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
			customValidation.Base64MinDecodedLength(8),
		),
	)
}
