// Package dto holds the auth module's HTTP request/response shapes.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// RegisterClientRequest is the body of POST /client/register.
type RegisterClientRequest struct {
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Validate checks the register request.
func (r *RegisterClientRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(3, 255),
		),
	)
}

// LoginRequest is the body of POST /client/login.
type LoginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// Validate checks the login request.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Secret, validation.Required, customValidation.NotBlank),
	)
}
