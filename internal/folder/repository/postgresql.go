package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	folderDomain "github.com/sealedbox/sealedbox/internal/folder/domain"
)

// PostgreSQLRepository implements Repository for PostgreSQL.
type PostgreSQLRepository struct {
	db *sql.DB
}

// NewPostgreSQLRepository builds a PostgreSQLRepository.
func NewPostgreSQLRepository(db *sql.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{db: db}
}

// Create inserts a new folder row.
func (p *PostgreSQLRepository) Create(ctx context.Context, f *folderDomain.Folder) error {
	querier := database.GetTx(ctx, p.db)
	const query = `INSERT INTO folders (id, name, parent_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := querier.ExecContext(ctx, query, f.ID, f.Name, f.ParentID, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create folder")
	}
	return nil
}

// Update persists a folder's mutable fields.
func (p *PostgreSQLRepository) Update(ctx context.Context, f *folderDomain.Folder) error {
	querier := database.GetTx(ctx, p.db)
	const query = `UPDATE folders SET name = $1, parent_id = $2, updated_at = $3 WHERE id = $4`
	_, err := querier.ExecContext(ctx, query, f.Name, f.ParentID, f.UpdatedAt, f.ID)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update folder")
	}
	return nil
}

func scanFolder(row interface{ Scan(...any) error }) (*folderDomain.Folder, error) {
	var f folderDomain.Folder
	if err := row.Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "folder not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan folder")
	}
	return &f, nil
}

// GetByID fetches a folder by id.
func (p *PostgreSQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE id = $1`
	return scanFolder(querier.QueryRowContext(ctx, query, id))
}

// GetByParentAndName fetches the folder uniquely identified by its parent
// and name (siblings must have distinct names; root-level folders share
// a nil parent).
func (p *PostgreSQLRepository) GetByParentAndName(ctx context.Context, parentID *uuid.UUID, name string) (*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, p.db)
	if parentID == nil {
		const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id IS NULL AND name = $1`
		return scanFolder(querier.QueryRowContext(ctx, query, name))
	}
	const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id = $1 AND name = $2`
	return scanFolder(querier.QueryRowContext(ctx, query, *parentID, name))
}

// List returns every folder directly under parentID (nil for root-level).
func (p *PostgreSQLRepository) List(ctx context.Context, parentID *uuid.UUID) ([]*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, p.db)

	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = querier.QueryContext(ctx, `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id IS NULL ORDER BY name ASC`)
	} else {
		rows, err = querier.QueryContext(ctx, `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id = $1 ORDER BY name ASC`, *parentID)
	}
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list folders")
	}
	defer rows.Close()

	out := make([]*folderDomain.Folder, 0)
	for rows.Next() {
		var f folderDomain.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan folder row")
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate folder rows")
	}
	return out, nil
}

// Delete removes a folder row.
func (p *PostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)
	res, err := querier.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to delete folder")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.WrapInternal(err, "failed to confirm folder deletion")
	}
	if n == 0 {
		return apperrors.New(apperrors.KindNotFound, "folder not found")
	}
	return nil
}

// HasChildren reports whether any folder has id as its parent.
func (p *PostgreSQLRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)
	var exists bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM folders WHERE parent_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apperrors.WrapInternal(err, "failed to check folder children")
	}
	return exists, nil
}
