// Package usecase implements client registration, login, and administration.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/auth/password"
	"github.com/sealedbox/sealedbox/internal/auth/repository"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/metrics"
)

const metricsDomain = "auth"

// AdminBootstrapName is the name reserved for the seeded administrator
// client created the first time the server starts against an empty client
// table.
const AdminBootstrapName = "admin"

// UseCase implements client registration, authentication, and
// administration.
type UseCase struct {
	txManager database.TxManager
	repo      repository.Repository
	hasher    *password.Hasher
	tokens    *token.Service
	metrics   metrics.BusinessMetrics
}

// New builds a UseCase. bm may be nil, in which case business metrics are
// recorded as no-ops.
func New(txManager database.TxManager, repo repository.Repository, hasher *password.Hasher, tokens *token.Service, bm metrics.BusinessMetrics) *UseCase {
	if bm == nil {
		bm = metrics.NewNoOpBusinessMetrics()
	}
	return &UseCase{txManager: txManager, repo: repo, hasher: hasher, tokens: tokens, metrics: bm}
}

// Register creates a new client with a freshly generated secret. The plain
// secret is returned exactly once and cannot be retrieved again.
func (u *UseCase) Register(ctx context.Context, in *authDomain.RegisterClientInput) (*authDomain.RegisterClientOutput, error) {
	plainSecret, hashedSecret, err := u.hasher.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &authDomain.Client{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        in.Name,
		Secret:      hashedSecret,
		Active:      true,
		Roles:       in.Roles,
		Permissions: in.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Create(ctx, client)
	}); err != nil {
		return nil, err
	}

	return &authDomain.RegisterClientOutput{ID: client.ID, PlainSecret: plainSecret}, nil
}

// BootstrapAdmin seeds the reserved admin client, with the wildcard role
// and permission, the first time the server starts against an empty client
// table. When fixedSecret is non-empty it is hashed and stored instead of a
// randomly generated one, letting an operator pin the admin secret for a
// deployment rather than scrape it from a one-time log line; the returned
// plain secret is then fixedSecret itself, so the caller can still decide
// whether to surface it. Returns "" if the table was already non-empty
// (bootstrap only ever runs once).
func (u *UseCase) BootstrapAdmin(ctx context.Context, fixedSecret string) (string, error) {
	count, err := u.repo.Count(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	if fixedSecret == "" {
		out, err := u.Register(ctx, &authDomain.RegisterClientInput{
			Name:        AdminBootstrapName,
			Roles:       []string{authDomain.WildcardRole},
			Permissions: []string{authDomain.WildcardPermission},
		})
		if err != nil {
			return "", err
		}
		return out.PlainSecret, nil
	}

	hashedSecret, err := u.hasher.Hash(fixedSecret)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	client := &authDomain.Client{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        AdminBootstrapName,
		Secret:      hashedSecret,
		Active:      true,
		Roles:       []string{authDomain.WildcardRole},
		Permissions: []string{authDomain.WildcardPermission},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Create(ctx, client)
	}); err != nil {
		return "", err
	}
	return fixedSecret, nil
}

// Login authenticates name/plainSecret and, on success, issues a signed
// JWT carrying the client's roles and permissions.
func (u *UseCase) Login(ctx context.Context, name, plainSecret string) (string, error) {
	started := time.Now()
	record := func(status string) {
		u.metrics.RecordOperation(ctx, metricsDomain, "login", status)
		u.metrics.RecordDuration(ctx, metricsDomain, "login", time.Since(started), status)
	}

	client, err := u.repo.GetByName(ctx, name)
	if err != nil {
		if apperrors.GetKind(err) == apperrors.KindNotFound {
			// Don't distinguish "no such client" from "wrong secret" —
			// both collapse to invalid credentials.
			record("error")
			return "", apperrors.Wrap(apperrors.KindInvalidCredentials, apperrors.ErrAuthenticationFail, "invalid credentials")
		}
		return "", err
	}

	if !u.hasher.Verify(plainSecret, client.Secret) {
		record("error")
		return "", apperrors.Wrap(apperrors.KindInvalidCredentials, apperrors.ErrAuthenticationFail, "invalid credentials")
	}
	if !client.Active {
		record("error")
		return "", apperrors.Wrap(apperrors.KindForbidden, apperrors.ErrClientInactive, "client is inactive")
	}

	token, err := u.tokens.Issue(client.ID.String(), client.Roles, client.Permissions)
	if err != nil {
		record("error")
		return "", err
	}
	record("success")
	return token, nil
}

// GetInfo returns a client's public profile.
func (u *UseCase) GetInfo(ctx context.Context, id uuid.UUID) (*authDomain.Client, error) {
	return u.repo.Get(ctx, id)
}

// Revoke deactivates a client, immediately preventing further logins. Tokens
// already issued remain valid until they expire — this service is
// stateless and does not maintain a revocation list.
func (u *UseCase) Revoke(ctx context.Context, id uuid.UUID) error {
	client, err := u.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	client.Active = false
	client.UpdatedAt = time.Now().UTC()

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, client)
	})
}

// List returns a page of clients.
func (u *UseCase) List(ctx context.Context, limit, offset int) ([]*authDomain.Client, error) {
	return u.repo.List(ctx, limit, offset)
}
