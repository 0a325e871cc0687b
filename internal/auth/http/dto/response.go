package dto

import (
	"time"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
)

// RegisterClientResponse is returned once with the plain secret.
type RegisterClientResponse struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// LoginResponse carries the signed JWT.
type LoginResponse struct {
	Token string `json:"token"`
}

// ClientResponse is a client's public profile, never including the secret.
type ClientResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapClientToResponse converts a domain Client to its public response shape.
func MapClientToResponse(c *authDomain.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Active:      c.Active,
		Roles:       c.Roles,
		Permissions: c.Permissions,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
