package dto

import (
	"encoding/base64"
	"time"

	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
)

// SecretResponse is a secret's metadata — never returned alongside the
// decrypted value unless the endpoint is specifically a read.
type SecretResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DekID        uint32     `json:"dek_id"`
	FolderID     *string    `json:"folder_id,omitempty"`
	LastRotation *time.Time `json:"last_rotation,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SecretValueResponse is returned by the read endpoint, carrying the
// decrypted value base64-encoded alongside the metadata.
type SecretValueResponse struct {
	SecretResponse
	Value string `json:"value"`
}

// MapSecretToResponse converts a domain Secret to its metadata-only shape.
func MapSecretToResponse(s *secretsDomain.Secret) SecretResponse {
	var folderID *string
	if s.FolderID != nil {
		v := s.FolderID.String()
		folderID = &v
	}
	return SecretResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		DekID:        s.DekID,
		FolderID:     folderID,
		LastRotation: s.LastRotation,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// MapSecretToValueResponse converts a decrypted secret to the read response
// shape, base64-encoding the plaintext.
func MapSecretToValueResponse(s *secretsDomain.Secret, plaintext []byte) SecretValueResponse {
	return SecretValueResponse{
		SecretResponse: MapSecretToResponse(s),
		Value:          base64.StdEncoding.EncodeToString(plaintext),
	}
}
