// Package token issues and verifies the HMAC-SHA256 JWTs clients present on
// every authenticated request.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// Issuer is the fixed iss claim stamped on every token this service mints.
const Issuer = "sealedbox"

// Claims is the JWT payload: the standard registered claims plus the
// client's roles and permissions, so authorization never needs a database
// round trip once a token has been verified.
type Claims struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Service issues and verifies Claims-bearing JWTs signed with a single
// shared HMAC key.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// New builds a Service. signingKey must be non-empty; ttl is how long newly
// issued tokens remain valid.
func New(signingKey []byte, ttl time.Duration) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, apperrors.New(apperrors.KindInternal, "token signing key must not be empty")
	}
	return &Service{signingKey: signingKey, ttl: ttl}, nil
}

// Issue mints a signed token for clientID carrying roles and permissions.
func (s *Service) Issue(clientID string, roles, permissions []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Roles:       roles,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", apperrors.WrapInternal(err, "failed to sign token")
	}
	return signed, nil
}

// Verify validates tokenString's signature, issuer, and expiry, and returns
// its claims. Any failure is reported as KindAuthenticationNeeded — the
// caller should respond as if no credential was presented at all.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithIssuer(Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAuthenticationNeeded, err, "invalid or expired token")
	}
	if parsed == nil || !parsed.Valid {
		return nil, apperrors.New(apperrors.KindAuthenticationNeeded, "invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, apperrors.New(apperrors.KindAuthenticationNeeded, "token missing subject claim")
	}
	return claims, nil
}
