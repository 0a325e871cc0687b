// Package usecase implements folder CRUD and the invariants around
// nesting: sibling name uniqueness and acyclic parent chains.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	folderDomain "github.com/sealedbox/sealedbox/internal/folder/domain"
	"github.com/sealedbox/sealedbox/internal/folder/repository"
	secretsRepo "github.com/sealedbox/sealedbox/internal/secrets/repository"
)

// UseCase implements folder CRUD against a durable repository.
type UseCase struct {
	txManager  database.TxManager
	repo       repository.Repository
	secretRepo secretsRepo.Repository
}

// New builds a UseCase.
func New(txManager database.TxManager, repo repository.Repository, secretRepo secretsRepo.Repository) *UseCase {
	return &UseCase{txManager: txManager, repo: repo, secretRepo: secretRepo}
}

// Create inserts a new folder, refusing a duplicate name under the same
// parent and a parent that does not exist.
func (u *UseCase) Create(ctx context.Context, name string, parentID *uuid.UUID) (*folderDomain.Folder, error) {
	if parentID != nil {
		if _, err := u.repo.GetByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	if existing, err := u.repo.GetByParentAndName(ctx, parentID, name); err == nil && existing != nil {
		return nil, apperrors.Wrap(apperrors.KindConflict, apperrors.ErrConflict, "folder name already exists under this parent")
	} else if apperrors.GetKind(err) != apperrors.KindNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	f := &folderDomain.Folder{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Create(ctx, f)
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns a folder by id.
func (u *UseCase) Get(ctx context.Context, id uuid.UUID) (*folderDomain.Folder, error) {
	return u.repo.GetByID(ctx, id)
}

// List returns every folder directly under parentID (nil for root-level).
func (u *UseCase) List(ctx context.Context, parentID *uuid.UUID) ([]*folderDomain.Folder, error) {
	return u.repo.List(ctx, parentID)
}

// Update renames a folder and/or reparents it, refusing a rename that
// collides with a sibling and a reparent that would create a cycle.
func (u *UseCase) Update(ctx context.Context, id uuid.UUID, name string, parentID *uuid.UUID) (*folderDomain.Folder, error) {
	f, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == id {
			return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrFolderCycle, "folder cannot be its own parent")
		}
		if err := u.checkNoCycle(ctx, id, *parentID); err != nil {
			return nil, err
		}
	}

	if existing, err := u.repo.GetByParentAndName(ctx, parentID, name); err == nil && existing != nil && existing.ID != id {
		return nil, apperrors.Wrap(apperrors.KindConflict, apperrors.ErrConflict, "folder name already exists under this parent")
	} else if err != nil && apperrors.GetKind(err) != apperrors.KindNotFound {
		return nil, err
	}

	f.Name = name
	f.ParentID = parentID
	f.UpdatedAt = time.Now().UTC()

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Update(ctx, f)
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// checkNoCycle walks newParentID's ancestor chain, refusing the reparent if
// id appears in it — that would make id its own descendant.
func (u *UseCase) checkNoCycle(ctx context.Context, id, newParentID uuid.UUID) error {
	current := newParentID
	for {
		if current == id {
			return apperrors.Wrap(apperrors.KindValidation, apperrors.ErrFolderCycle, "reparenting would create a folder cycle")
		}
		parent, err := u.repo.GetByID(ctx, current)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
}

// Delete removes a folder, refused if it has child folders or if any
// secret still files under it.
func (u *UseCase) Delete(ctx context.Context, id uuid.UUID) error {
	hasChildren, err := u.repo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return apperrors.Wrap(apperrors.KindConflict, apperrors.ErrConflict, "folder has child folders")
	}

	secrets, err := u.secretRepo.List(ctx, &id, 1, 0)
	if err != nil {
		return err
	}
	if len(secrets) > 0 {
		return apperrors.Wrap(apperrors.KindConflict, apperrors.ErrConflict, "folder still contains secrets")
	}

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	})
}
