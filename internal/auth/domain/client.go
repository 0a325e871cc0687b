// Package domain defines the authentication and authorization domain model:
// clients authenticate with a hashed secret and carry a set of roles and a
// set of permissions, checked against a JWT's claims on every request.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// WildcardPermission grants every permission when present in a client's or
// token's permission set, regardless of what else is listed.
const WildcardPermission = "*"

// WildcardRole grants every role-gated operation when present.
const WildcardRole = "*"

// Client is an authentication principal. Secret holds the Argon2id hash of
// the client's credential, never the plaintext.
type Client struct {
	ID          uuid.UUID
	Name        string
	Secret      string //nolint:gosec // Argon2id hash, not plaintext
	Active      bool
	Roles       []string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole reports whether the client carries role, or the wildcard role.
func (c *Client) HasRole(role string) bool {
	return slices.Contains(c.Roles, WildcardRole) || slices.Contains(c.Roles, role)
}

// HasPermission reports whether the client carries permission, or the
// wildcard permission.
func (c *Client) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, WildcardPermission) || slices.Contains(c.Permissions, permission)
}

// HasAnyPermission reports whether the client carries at least one of
// permissions, or the wildcard permission.
func (c *Client) HasAnyPermission(permissions ...string) bool {
	if slices.Contains(c.Permissions, WildcardPermission) {
		return true
	}
	for _, p := range permissions {
		if slices.Contains(c.Permissions, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the client carries every one of
// permissions, or the wildcard permission.
func (c *Client) HasAllPermissions(permissions ...string) bool {
	if slices.Contains(c.Permissions, WildcardPermission) {
		return true
	}
	for _, p := range permissions {
		if !slices.Contains(c.Permissions, p) {
			return false
		}
	}
	return true
}

// RegisterClientInput are the parameters for creating a new client.
type RegisterClientInput struct {
	Name        string
	Roles       []string
	Permissions []string
}

// RegisterClientOutput is the result of registering a client. PlainSecret is
// returned exactly once and can never be retrieved again.
type RegisterClientOutput struct {
	ID          uuid.UUID
	PlainSecret string
}
