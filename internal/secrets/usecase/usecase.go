// Package usecase implements secret CRUD and opportunistic re-encryption
// onto the current default DEK.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
	"github.com/sealedbox/sealedbox/internal/crypto/dek"
	"github.com/sealedbox/sealedbox/internal/crypto/envelope"
	"github.com/sealedbox/sealedbox/internal/crypto/rotation"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/metrics"
	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
	"github.com/sealedbox/sealedbox/internal/secrets/repository"
)

const metricsDomain = "secrets"

// UseCase implements secret lifecycle operations: envelope-encrypt on
// write, envelope-open on read, and opportunistic re-encryption onto the
// current default DEK when a read finds a secret sealed under a stale one.
type UseCase struct {
	txManager database.TxManager
	repo      repository.Repository
	ring      *dek.KeyRing
	pool      *rotation.Pool
	metrics   metrics.BusinessMetrics
}

// New builds a UseCase. pool may be nil, in which case opportunistic
// rotation is disabled (every read simply decrypts and returns). bm may be
// nil, in which case business metrics are recorded as no-ops.
func New(txManager database.TxManager, repo repository.Repository, ring *dek.KeyRing, pool *rotation.Pool, bm metrics.BusinessMetrics) *UseCase {
	if bm == nil {
		bm = metrics.NewNoOpBusinessMetrics()
	}
	return &UseCase{txManager: txManager, repo: repo, ring: ring, pool: pool, metrics: bm}
}

func (u *UseCase) cipherForDek(id uint32) (*aead.Cipher, error) {
	key, err := u.ring.Get(id)
	if err != nil {
		return nil, err
	}
	return aead.New(key)
}

// Create envelope-encrypts value under the current default DEK and
// persists a new secret row.
func (u *UseCase) Create(ctx context.Context, name string, value []byte, folderID *uuid.UUID) (*secretsDomain.Secret, error) {
	dekID := u.ring.DefaultID()
	cipher, err := u.cipherForDek(dekID)
	if err != nil {
		return nil, err
	}

	sealed, err := envelope.Seal(cipher, dekID, value)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &secretsDomain.Secret{
		ID:               uuid.Must(uuid.NewV7()),
		Name:             name,
		EncryptedPackage: sealed,
		DekID:            dekID,
		FolderID:         folderID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Create(ctx, s)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Update re-encrypts value under the current default DEK and replaces an
// existing secret's content in place, preserving its id and name.
func (u *UseCase) Update(ctx context.Context, id uuid.UUID, value []byte) (*secretsDomain.Secret, error) {
	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dekID := u.ring.DefaultID()
	cipher, err := u.cipherForDek(dekID)
	if err != nil {
		return nil, err
	}

	sealed, err := envelope.Seal(cipher, dekID, value)
	if err != nil {
		return nil, err
	}

	s.EncryptedPackage = sealed
	s.DekID = dekID
	s.UpdatedAt = time.Now().UTC()

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, s)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Decrypted is a secret's plaintext value alongside its row.
type Decrypted struct {
	Secret *secretsDomain.Secret
	Value  []byte
}

// Get retrieves and decrypts a secret by id. If the secret is sealed under
// a DEK other than the current default, it's enqueued for opportunistic
// background re-encryption — the caller still gets the correctly decrypted
// value for this read regardless of rotation outcome.
func (u *UseCase) Get(ctx context.Context, id uuid.UUID) (*Decrypted, error) {
	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.decryptAndMaybeEnqueue(ctx, s)
}

// GetByName retrieves and decrypts a secret by name.
func (u *UseCase) GetByName(ctx context.Context, name string) (*Decrypted, error) {
	s, err := u.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return u.decryptAndMaybeEnqueue(ctx, s)
}

func (u *UseCase) decryptAndMaybeEnqueue(ctx context.Context, s *secretsDomain.Secret) (*Decrypted, error) {
	cipher, err := u.cipherForDek(s.DekID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	opened, err := envelope.Open(cipher, s.EncryptedPackage, s.DekID)
	if err != nil {
		status := "error"
		if apperrors.GetKind(err) == apperrors.KindAuthFailure {
			status = "auth_failure"
		}
		u.metrics.RecordOperation(ctx, metricsDomain, "envelope_open", status)
		u.metrics.RecordDuration(ctx, metricsDomain, "envelope_open", time.Since(started), status)
		return nil, err
	}
	u.metrics.RecordOperation(ctx, metricsDomain, "envelope_open", "success")
	u.metrics.RecordDuration(ctx, metricsDomain, "envelope_open", time.Since(started), "success")

	if u.pool != nil && s.DekID != u.ring.DefaultID() {
		u.pool.Enqueue(s.ID.String())
	}

	return &Decrypted{Secret: s, Value: opened.Plaintext}, nil
}

// Reencrypt re-seals one secret under the current default DEK if it isn't
// already — the Reencryptor the rotation pool calls. A secret that was
// concurrently rotated or deleted before this runs is not an error.
func (u *UseCase) Reencrypt(ctx context.Context, secretIDStr string) error {
	id, err := uuid.Parse(secretIDStr)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "invalid secret id in rotation queue")
	}

	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.GetKind(err) == apperrors.KindNotFound {
			return nil
		}
		return err
	}

	defaultID := u.ring.DefaultID()
	if s.DekID == defaultID {
		return nil
	}

	oldCipher, err := u.cipherForDek(s.DekID)
	if err != nil {
		return err
	}
	opened, err := envelope.Open(oldCipher, s.EncryptedPackage, s.DekID)
	if err != nil {
		if apperrors.GetKind(err) == apperrors.KindAuthFailure {
			u.metrics.RecordOperation(ctx, metricsDomain, "envelope_open", "auth_failure")
		}
		return err
	}

	newCipher, err := u.cipherForDek(defaultID)
	if err != nil {
		return err
	}
	sealed, err := envelope.Seal(newCipher, defaultID, opened.Plaintext)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.EncryptedPackage = sealed
	s.DekID = defaultID
	s.LastRotation = &now
	s.UpdatedAt = now

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, s)
	})
}

// List returns a page of secrets scoped to folderID (nil for every folder).
func (u *UseCase) List(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error) {
	return u.repo.List(ctx, folderID, limit, offset)
}

// Delete removes a secret row outright.
func (u *UseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	})
}
