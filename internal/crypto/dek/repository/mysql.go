package repository

import (
	"context"
	"database/sql"

	dekDomain "github.com/sealedbox/sealedbox/internal/crypto/dek/domain"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// MySQLRepository implements Repository for MySQL.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository builds a MySQLRepository.
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Create inserts dek and returns the auto-incremented id.
func (m *MySQLRepository) Create(ctx context.Context, dek *dekDomain.Dek) (uint32, error) {
	querier := database.GetTx(ctx, m.db)

	const query = `INSERT INTO deks (name, wrapped_key, kek_id, version, active, created_at, updated_at)
	               VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := querier.ExecContext(
		ctx, query,
		dek.Name, dek.WrappedKey, dek.KekID, dek.Version, dek.Active, dek.CreatedAt, dek.UpdatedAt,
	)
	if err != nil {
		return 0, apperrors.WrapInternal(err, "failed to create dek")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.WrapInternal(err, "failed to read dek insert id")
	}
	return uint32(id), nil
}

func scanMySQLDek(row interface{ Scan(...any) error }) (*dekDomain.Dek, error) {
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
func (m *MySQLRepository) GetByID(ctx context.Context, id uint32) (*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE id = ?`
	return scanMySQLDek(querier.QueryRowContext(ctx, query, id))
}

// GetByName fetches a DEK by its unique name.
func (m *MySQLRepository) GetByName(ctx context.Context, name string) (*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE name = ?`
	return scanMySQLDek(querier.QueryRowContext(ctx, query, name))
}

func (m *MySQLRepository) queryDeks(ctx context.Context, query string, args ...any) ([]*dekDomain.Dek, error) {
	querier := database.GetTx(ctx, m.db)
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
func (m *MySQLRepository) List(ctx context.Context, limit, offset int) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks ORDER BY id ASC LIMIT ? OFFSET ?`
	return m.queryDeks(ctx, query, limit, offset)
}

// ListAll returns every DEK row, used at startup to populate the key cache.
func (m *MySQLRepository) ListAll(ctx context.Context) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks ORDER BY id ASC`
	return m.queryDeks(ctx, query)
}

// ListByKekID returns up to batchSize DEKs not already wrapped under kekID.
func (m *MySQLRepository) ListByKekID(ctx context.Context, kekID string, batchSize int) ([]*dekDomain.Dek, error) {
	const query = `SELECT id, name, wrapped_key, kek_id, version, active, created_at, updated_at
	               FROM deks WHERE kek_id != ? ORDER BY id ASC LIMIT ?`
	return m.queryDeks(ctx, query, kekID, batchSize)
}

// Update persists dek's mutable fields.
func (m *MySQLRepository) Update(ctx context.Context, dek *dekDomain.Dek) error {
	querier := database.GetTx(ctx, m.db)
	const query = `UPDATE deks
	               SET wrapped_key = ?, kek_id = ?, version = ?, active = ?, updated_at = ?
	               WHERE id = ?`
	_, err := querier.ExecContext(ctx, query, dek.WrappedKey, dek.KekID, dek.Version, dek.Active, dek.UpdatedAt, dek.ID)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update dek")
	}
	return nil
}

// Delete removes a DEK row.
func (m *MySQLRepository) Delete(ctx context.Context, id uint32) error {
	querier := database.GetTx(ctx, m.db)
	const query = `DELETE FROM deks WHERE id = ?`
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
func (m *MySQLRepository) MaxID(ctx context.Context) (uint32, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT COALESCE(MAX(id), 0) FROM deks`
	var id uint32
	if err := querier.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, apperrors.WrapInternal(err, "failed to compute max dek id")
	}
	return id, nil
}

// IsReferencedBySecret reports whether any secret row still points at id.
func (m *MySQLRepository) IsReferencedBySecret(ctx context.Context, id uint32) (bool, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT EXISTS(SELECT 1 FROM secrets WHERE dek_id = ?)`
	var exists bool
	if err := querier.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, apperrors.WrapInternal(err, "failed to check dek references")
	}
	return exists, nil
}
