// Package repository persists Folder rows to a relational store.
package repository

import (
	"context"

	"github.com/google/uuid"

	folderDomain "github.com/sealedbox/sealedbox/internal/folder/domain"
)

// Repository is the durable-store collaborator for Folder rows.
type Repository interface {
	Create(ctx context.Context, f *folderDomain.Folder) error
	Update(ctx context.Context, f *folderDomain.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*folderDomain.Folder, error)
	GetByParentAndName(ctx context.Context, parentID *uuid.UUID, name string) (*folderDomain.Folder, error)
	List(ctx context.Context, parentID *uuid.UUID) ([]*folderDomain.Folder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
}
