package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
)

// PostgreSQLRepository implements Repository for PostgreSQL.
type PostgreSQLRepository struct {
	db *sql.DB
}

// NewPostgreSQLRepository builds a PostgreSQLRepository.
func NewPostgreSQLRepository(db *sql.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{db: db}
}

// Create inserts a new secret row.
func (p *PostgreSQLRepository) Create(ctx context.Context, s *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)
	const query = `INSERT INTO secrets (id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := querier.ExecContext(ctx, query,
		s.ID, s.Name, s.EncryptedPackage, s.DekID, s.FolderID, s.LastRotation, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create secret")
	}
	return nil
}

// Update persists a secret's mutable fields.
func (p *PostgreSQLRepository) Update(ctx context.Context, s *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)
	const query = `UPDATE secrets
	               SET encrypted_package = $1, dek_id = $2, folder_id = $3, last_rotation = $4, updated_at = $5
	               WHERE id = $6`
	_, err := querier.ExecContext(ctx, query,
		s.EncryptedPackage, s.DekID, s.FolderID, s.LastRotation, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update secret")
	}
	return nil
}

func scanSecret(row interface{ Scan(...any) error }) (*secretsDomain.Secret, error) {
	var s secretsDomain.Secret
	err := row.Scan(&s.ID, &s.Name, &s.EncryptedPackage, &s.DekID, &s.FolderID, &s.LastRotation, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan secret")
	}
	return &s, nil
}

// GetByID fetches a secret by id.
func (p *PostgreSQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE id = $1`
	return scanSecret(querier.QueryRowContext(ctx, query, id))
}

// GetByName fetches a secret by its unique name.
func (p *PostgreSQLRepository) GetByName(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE name = $1`
	return scanSecret(querier.QueryRowContext(ctx, query, name))
}

func (p *PostgreSQLRepository) scanRows(rows *sql.Rows) ([]*secretsDomain.Secret, error) {
	defer rows.Close()
	out := make([]*secretsDomain.Secret, 0)
	for rows.Next() {
		var s secretsDomain.Secret
		if err := rows.Scan(&s.ID, &s.Name, &s.EncryptedPackage, &s.DekID, &s.FolderID, &s.LastRotation, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan secret row")
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate secret rows")
	}
	return out, nil
}

// List returns a page of secrets, optionally scoped to folderID.
func (p *PostgreSQLRepository) List(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	var rows *sql.Rows
	var err error
	if folderID != nil {
		const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
		               FROM secrets WHERE folder_id = $1 ORDER BY name ASC LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, *folderID, limit, offset)
	} else {
		const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
		               FROM secrets ORDER BY name ASC LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list secrets")
	}
	return p.scanRows(rows)
}

// ListByDekID returns up to batchSize secrets still wrapped under dekID.
func (p *PostgreSQLRepository) ListByDekID(ctx context.Context, dekID uint32, batchSize int) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE dek_id = $1 ORDER BY id ASC LIMIT $2`
	rows, err := querier.QueryContext(ctx, query, dekID, batchSize)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list secrets by dek id")
	}
	return p.scanRows(rows)
}

// Delete removes a secret row.
func (p *PostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)
	res, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1`, id)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to delete secret")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.WrapInternal(err, "failed to confirm secret deletion")
	}
	if n == 0 {
		return apperrors.New(apperrors.KindNotFound, "secret not found")
	}
	return nil
}
