// Package repository persists DEK rows to a relational store.
package repository

import (
	"context"

	dekDomain "github.com/sealedbox/sealedbox/internal/crypto/dek/domain"
)

// Repository is the durable-store collaborator for DEK rows.
type Repository interface {
	Create(ctx context.Context, dek *dekDomain.Dek) (uint32, error)
	GetByID(ctx context.Context, id uint32) (*dekDomain.Dek, error)
	GetByName(ctx context.Context, name string) (*dekDomain.Dek, error)
	List(ctx context.Context, limit, offset int) ([]*dekDomain.Dek, error)
	ListAll(ctx context.Context) ([]*dekDomain.Dek, error)
	ListByKekID(ctx context.Context, kekID string, batchSize int) ([]*dekDomain.Dek, error)
	Update(ctx context.Context, dek *dekDomain.Dek) error
	Delete(ctx context.Context, id uint32) error
	MaxID(ctx context.Context) (uint32, error)
	IsReferencedBySecret(ctx context.Context, id uint32) (bool, error)
}
