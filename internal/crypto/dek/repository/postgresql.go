package repository

import (
	"context"
	"database/sql"

	dekDomain "github.com/sealedbox/sealedbox/internal/crypto/dek/domain"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// PostgreSQLRepository implements Repository for PostgreSQL. The DEK id is
// a database-assigned monotonic SERIAL, immutable once issued.
type PostgreSQLRepository struct {
	db *sql.DB
}

// NewPostgreSQLRepository builds a PostgreSQLRepository.
func NewPostgreSQLRepository(db *sql.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{db: db}
}

// Create inserts dek and returns the database-assigned id.
func (r *PostgreSQLRepository) Create(ctx context.Context, dek *dekDomain.Dek) (uint32, error) {
	querier := database.GetTx(ctx, r.db)

	const query = `INSERT INTO deks (name, wrapped_key, kek_id, version, active, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)
	               RETURNING id`

	var id uint32
	err := querier.QueryRowContext(
		ctx, query,
		dek.Name, dek.WrappedKey, dek.KekID, dek.Version, dek.Active, dek.CreatedAt, dek.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.WrapInternal(err, "failed to create dek")
	}
	return id, nil
}

func scanDek(row interface{ Scan(...any) error }) (*dekDomain.Dek, error) {
	var d dekDomain.Dek
	if err := row.Scan(&d.ID, &d.Name, &d.WrappedKey, &d.KekID, &d.Version, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.KindNotFound, "dek not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan dek")
	}
	return &d, nil
}

// GetByID fetches a DEK by id.
func (r *PostgreSQLRepository) GetByID(ctx context.Context, id uint32) (*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, r.db)
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE id = $1`
	return scanDek(querier.QueryRowContext(ctx, query, id))
}

// GetByName fetches a DEK by its unique name.
func (r *PostgreSQLRepository) GetByName(ctx context.Context, name string) (*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, r.db)
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE name = $1`
	return scanDek(querier.QueryRowContext(ctx, query, name))
}

func (r *PostgreSQLRepository) queryDeks(ctx context.Context, query string, args ...any) ([]*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, r.db)
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list deks")
	}
	defer rows.Close()

	var out []*dekDomain.Dek
	for rows.Next() {
		var d dekDomain.Dek
		if err := rows.Scan(&d.ID, &d.Name, &d.WrappedKey, &d.KekID, &d.Version, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan dek row")
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate dek rows")
	}
	return out, nil
}

// List returns a page of DEKs ordered by id.
func (r *PostgreSQLRepository) List(ctx context.Context, limit, offset int) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks ORDER BY id ASC LIMIT $1 OFFSET $2`
	return r.queryDeks(ctx, query, limit, offset)
}

// ListAll returns every DEK row, used at startup to populate the key cache.
func (r *PostgreSQLRepository) ListAll(ctx context.Context) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks ORDER BY id ASC`
	return r.queryDeks(ctx, query)
}

// ListByKekID returns up to batchSize DEKs not already wrapped under kekID,
// used by KEK rotation to find the next batch of work.
func (r *PostgreSQLRepository) ListByKekID(ctx context.Context, kekID string, batchSize int) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE kek_id != $1 ORDER BY id ASC LIMIT $2`
	return r.queryDeks(ctx, query, kekID, batchSize)
}

// Update persists dek's mutable fields (wrapped_key, kek_id, version,
// active, updated_at).
func (r *PostgreSQLRepository) Update(ctx context.Context, dek *dekDomain.Dek) error {
	querier := database.GetTx(ctx, r.db)
	const query = `UPDATE deks
	               SET wrapped_key = $1, kek_id = $2, version = $3, active = $4, updated_at = $5
	               WHERE id = $6`
	_, err := querier.ExecContext(ctx, query, dek.WrappedKey, dek.KekID, dek.Version, dek.Active, dek.UpdatedAt, dek.ID)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update dek")
	}
	return nil
}

// Delete removes a DEK row. Callers must check IsReferencedBySecret first —
// a DEK referenced by any secret is refused, never cascaded.
func (r *PostgreSQLRepository) Delete(ctx context.Context, id uint32) error {
	querier := database.GetTx(ctx, r.db)
	const query = `DELETE FROM deks WHERE id = $1`
	res, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to delete dek")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.WrapInternal(err, "failed to confirm dek deletion")
	}
	if n == 0 {
		return apperrors.New(apperrors.KindNotFound, "dek not found")
	}
	return nil
}

// MaxID returns the highest DEK id present, or 0 if the table is empty.
func (r *PostgreSQLRepository) MaxID(ctx context.Context) (uint32, error) {
	querier := database.GetTx(ctx, r.db)
	const query = `SELECT COALESCE(MAX(id), 0) FROM deks`
	var id uint32
	if err := querier.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, apperrors.WrapInternal(err, "failed to compute max dek id")
	}
	return id, nil
}

// IsReferencedBySecret reports whether any secret row still points at id.
func (r *PostgreSQLRepository) IsReferencedBySecret(ctx context.Context, id uint32) (bool, error) {
	querier := database.GetTx(ctx, r.db)
	const query = `SELECT EXISTS(SELECT 1 FROM secrets WHERE dek_id = $1)`
	var exists bool
	if err := querier.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, apperrors.WrapInternal(err, "failed to check dek references")
	}
	return exists, nil
}
