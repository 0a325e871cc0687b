// Package repository persists Secret rows to a relational store.
package repository

import (
	"context"

	"github.com/google/uuid"

	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
)

// Repository is the durable-store collaborator for Secret rows.
type Repository interface {
	Create(ctx context.Context, secret *secretsDomain.Secret) error
	Update(ctx context.Context, secret *secretsDomain.Secret) error
	GetByID(ctx context.Context, id uuid.UUID) (*secretsDomain.Secret, error)
	GetByName(ctx context.Context, name string) (*secretsDomain.Secret, error)
	List(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error)
	ListByDekID(ctx context.Context, dekID uint32, batchSize int) ([]*secretsDomain.Secret, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
