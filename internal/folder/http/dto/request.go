// Package dto holds the folder module's HTTP request/response shapes.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// CreateFolderRequest is the body of POST /folder.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Validate checks the create request.
func (r *CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
	)
}

// UpdateFolderRequest is the body of PUT /folder/:id.
type UpdateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Validate checks the update request.
func (r *UpdateFolderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
	)
}
