// Package repository persists Client rows to a relational store.
package repository

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
)

// Repository is the durable-store collaborator for Client rows.
type Repository interface {
	Create(ctx context.Context, client *authDomain.Client) error
	Update(ctx context.Context, client *authDomain.Client) error
	Get(ctx context.Context, id uuid.UUID) (*authDomain.Client, error)
	GetByName(ctx context.Context, name string) (*authDomain.Client, error)
	List(ctx context.Context, limit, offset int) ([]*authDomain.Client, error)
	Count(ctx context.Context) (int, error)
}
