// Package dto holds the DEK module's HTTP request/response shapes.
package dto

import (
	"time"

	dekDomain "github.com/sealedbox/sealedbox/internal/crypto/dek/domain"
)

// DekResponse is a DEK row's public shape — wrapped_key and plaintext never
// leave the process.
type DekResponse struct {
	ID        uint32    `json:"id"`
	Name      string    `json:"name"`
	KekID     string    `json:"kek_id"`
	Version   int       `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapDekToResponse converts a domain Dek to its public response shape.
func MapDekToResponse(d *dekDomain.Dek) DekResponse {
	return DekResponse{
		ID:        d.ID,
		Name:      d.Name,
		KekID:     d.KekID,
		Version:   d.Version,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// RotateKEKRequest is the body of POST /dek/rotate-kek.
type RotateKEKRequest struct {
	NewKekID string `json:"new_kek_id"`
}

// RotateKEKResponse reports the outcome of one rotation batch.
type RotateKEKResponse struct {
	Total    int                      `json:"total"`
	Success  int                      `json:"success"`
	Failures []dekDomain.RotationFailure `json:"failures,omitempty"`
}

// CreateDekRequest is the body of POST /dek.
type CreateDekRequest struct {
	Name string `json:"name"`
}
