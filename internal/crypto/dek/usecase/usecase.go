// Package usecase implements DEK lifecycle operations: creation, lookup,
// deletion, deactivation, KEK rotation, and the startup bootstrap that
// populates the process-resident key cache.
package usecase

import (
	"context"
	"time"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
	"github.com/sealedbox/sealedbox/internal/crypto/dek"
	dekDomain "github.com/sealedbox/sealedbox/internal/crypto/dek/domain"
	"github.com/sealedbox/sealedbox/internal/crypto/dek/repository"
	"github.com/sealedbox/sealedbox/internal/crypto/kms"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/metrics"
)

const metricsDomain = "dek"

// UseCase implements DEK lifecycle operations against a durable repository,
// a KMS adapter, and the in-process KeyRing cache.
type UseCase struct {
	txManager database.TxManager
	repo      repository.Repository
	kmsClient kms.Adapter
	ring      *dek.KeyRing

	// rotationBatchSize bounds how many DEKs RotateKEK re-wraps per batch
	// call, so a rotation over a large fleet of DEKs never blocks behind a
	// single unbounded transaction.
	rotationBatchSize int

	metrics metrics.BusinessMetrics
}

// New builds a UseCase. bm may be nil, in which case business metrics are
// recorded as no-ops.
func New(txManager database.TxManager, repo repository.Repository, kmsClient kms.Adapter, ring *dek.KeyRing, rotationBatchSize int, bm metrics.BusinessMetrics) *UseCase {
	if rotationBatchSize <= 0 {
		rotationBatchSize = 100
	}
	if bm == nil {
		bm = metrics.NewNoOpBusinessMetrics()
	}
	return &UseCase{
		txManager:         txManager,
		repo:              repo,
		kmsClient:         kmsClient,
		ring:              ring,
		rotationBatchSize: rotationBatchSize,
		metrics:           bm,
	}
}

// Bootstrap loads every persisted DEK at startup, unwraps each under its
// recorded kekId, and imports the plaintext into the KeyRing. The default
// DEK-id pointer is set to the highest id present, or left at its zero value
// (meaning "none yet") when the table is empty — callers then call Create to
// mint the first DEK. A single unwrap failure is fatal: serving secrets
// encrypted under a DEK this process cannot decrypt is worse than refusing
// to start.
func (u *UseCase) Bootstrap(ctx context.Context) error {
	deks, err := u.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	var maxID uint32
	for _, d := range deks {
		plaintext, err := u.kmsClient.UnwrapDEK(ctx, d.WrappedKey, d.KekID)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to unwrap dek during bootstrap")
		}
		u.ring.Put(d.ID, plaintext)
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	if maxID > 0 {
		u.ring.SetDefault(maxID)
	}
	return nil
}

// Create mints a fresh DEK: generates 256 bits of key material, wraps it
// under the KMS adapter's default KEK, persists the row, imports the
// plaintext into the KeyRing, and promotes it to the new default.
func (u *UseCase) Create(ctx context.Context, name string) (*dekDomain.Dek, error) {
	plaintext, err := aead.GenerateKey()
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to generate dek material")
	}
	defer zero(plaintext)

	kekID := u.kmsClient.DefaultKekID()
	wrapped, err := u.kmsClient.WrapDEK(ctx, plaintext, kekID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := &dekDomain.Dek{
		Name:       name,
		WrappedKey: wrapped,
		KekID:      kekID,
		Version:    1,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var id uint32
	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var txErr error
		id, txErr = u.repo.Create(ctx, d)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	d.ID = id

	u.ring.Put(id, plaintext)
	u.ring.SetDefault(id)

	return d, nil
}

// Get returns the DEK row by id.
func (u *UseCase) Get(ctx context.Context, id uint32) (*dekDomain.Dek, error) {
	return u.repo.GetByID(ctx, id)
}

// List returns a page of DEK rows.
func (u *UseCase) List(ctx context.Context, limit, offset int) ([]*dekDomain.Dek, error) {
	return u.repo.List(ctx, limit, offset)
}

// Deactivate marks a DEK inactive: it remains usable to decrypt existing
// secrets but is no longer eligible to become the default for new writes.
// If id is the current default, the default pointer falls back to the
// highest remaining active id found in the repository.
func (u *UseCase) Deactivate(ctx context.Context, id uint32) error {
	d, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	d.Active = false
	d.UpdatedAt = time.Now().UTC()

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, d)
	}); err != nil {
		return err
	}

	if u.ring.DefaultID() == id {
		if err := u.reassignDefault(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (u *UseCase) reassignDefault(ctx context.Context) error {
	all, err := u.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	var next uint32
	for _, d := range all {
		if d.Active && d.ID > next {
			next = d.ID
		}
	}
	u.ring.SetDefault(next)
	return nil
}

// Delete removes a DEK row outright. Refused with KindConflict if any
// secret still references it — deletion is only for DEKs that were created
// in error and never used.
func (u *UseCase) Delete(ctx context.Context, id uint32) error {
	referenced, err := u.repo.IsReferencedBySecret(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return apperrors.Wrap(apperrors.KindConflict, apperrors.ErrDekStillReferenced, "dek is referenced by one or more secrets")
	}

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	}); err != nil {
		return err
	}

	u.ring.Remove(id)
	if u.ring.DefaultID() == id {
		return u.reassignDefault(ctx)
	}
	return nil
}

// RotateKEK re-wraps up to one batch of DEKs currently wrapped under any KEK
// other than newKekID, continuing past individual failures and reporting
// them in the returned RotationResult rather than aborting the whole batch.
// Callers (the CLI command, a scheduled job) call this repeatedly until
// Total is 0, at which point every DEK is wrapped under newKekID.
func (u *UseCase) RotateKEK(ctx context.Context, newKekID string) (*dekDomain.RotationResult, error) {
	batch, err := u.repo.ListByKekID(ctx, newKekID, u.rotationBatchSize)
	if err != nil {
		return nil, err
	}

	result := &dekDomain.RotationResult{Total: len(batch)}
	for _, d := range batch {
		started := time.Now()
		if err := u.rotateOne(ctx, d, newKekID); err != nil {
			result.Failures = append(result.Failures, dekDomain.RotationFailure{ID: d.ID, Error: err.Error()})
			u.metrics.RecordOperation(ctx, metricsDomain, "rotate_kek", "error")
			u.metrics.RecordDuration(ctx, metricsDomain, "rotate_kek", time.Since(started), "error")
			continue
		}
		result.Success++
		u.metrics.RecordOperation(ctx, metricsDomain, "rotate_kek", "success")
		u.metrics.RecordDuration(ctx, metricsDomain, "rotate_kek", time.Since(started), "success")
	}
	return result, nil
}

func (u *UseCase) rotateOne(ctx context.Context, d *dekDomain.Dek, newKekID string) error {
	rewrapped, err := u.kmsClient.ReencryptDEK(ctx, d.WrappedKey, d.KekID, newKekID)
	if err != nil {
		return err
	}

	plaintext, err := u.kmsClient.UnwrapDEK(ctx, rewrapped, newKekID)
	if err != nil {
		return err
	}
	defer zero(plaintext)

	d.WrappedKey = rewrapped
	d.KekID = newKekID
	d.Version++
	d.UpdatedAt = time.Now().UTC()

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, d)
	}); err != nil {
		return err
	}

	u.ring.Put(d.ID, plaintext)
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
