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

// MySQLRepository implements Repository for MySQL, storing UUIDs as
// BINARY(16).
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository builds a MySQLRepository.
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func marshalUUID(id uuid.UUID) ([]byte, error) {
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to marshal uuid")
	}
	return b, nil
}

func marshalNullableUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return marshalUUID(*id)
}

// Create inserts a new folder row.
func (m *MySQLRepository) Create(ctx context.Context, f *folderDomain.Folder) error {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(f.ID)
	if err != nil {
		return err
	}
	parentBytes, err := marshalNullableUUID(f.ParentID)
	if err != nil {
		return err
	}
	const query = `INSERT INTO folders (id, name, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err = querier.ExecContext(ctx, query, idBytes, f.Name, parentBytes, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create folder")
	}
	return nil
}

// Update persists a folder's mutable fields.
func (m *MySQLRepository) Update(ctx context.Context, f *folderDomain.Folder) error {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(f.ID)
	if err != nil {
		return err
	}
	parentBytes, err := marshalNullableUUID(f.ParentID)
	if err != nil {
		return err
	}
	const query = `UPDATE folders SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?`
	_, err = querier.ExecContext(ctx, query, f.Name, parentBytes, f.UpdatedAt, idBytes)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update folder")
	}
	return nil
}

func scanMySQLFolder(row interface{ Scan(...any) error }) (*folderDomain.Folder, error) {
	var f folderDomain.Folder
	var idBytes, parentBytes []byte
	if err := row.Scan(&idBytes, &f.Name, &parentBytes, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "folder not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan folder")
	}
	if err := f.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to unmarshal folder id")
	}
	if parentBytes != nil {
		var parentID uuid.UUID
		if err := parentID.UnmarshalBinary(parentBytes); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to unmarshal parent id")
		}
		f.ParentID = &parentID
	}
	return &f, nil
}

// GetByID fetches a folder by id.
func (m *MySQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(id)
	if err != nil {
		return nil, err
	}
	const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE id = ?`
	return scanMySQLFolder(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByParentAndName fetches the folder uniquely identified by its parent and name.
func (m *MySQLRepository) GetByParentAndName(ctx context.Context, parentID *uuid.UUID, name string) (*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, m.db)
	if parentID == nil {
		const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id IS NULL AND name = ?`
		return scanMySQLFolder(querier.QueryRowContext(ctx, query, name))
	}
	parentBytes, err := marshalUUID(*parentID)
	if err != nil {
		return nil, err
	}
	const query = `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id = ? AND name = ?`
	return scanMySQLFolder(querier.QueryRowContext(ctx, query, parentBytes, name))
}

// List returns every folder directly under parentID (nil for root-level).
func (m *MySQLRepository) List(ctx context.Context, parentID *uuid.UUID) ([]*folderDomain.Folder, error) {
	querier := database.GetTx(ctx, m.db)

	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = querier.QueryContext(ctx, `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id IS NULL ORDER BY name ASC`)
	} else {
		parentBytes, mErr := marshalUUID(*parentID)
		if mErr != nil {
			return nil, mErr
		}
		rows, err = querier.QueryContext(ctx, `SELECT id, name, parent_id, created_at, updated_at FROM folders WHERE parent_id = ? ORDER BY name ASC`, parentBytes)
	}
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list folders")
	}
	defer rows.Close()

	out := make([]*folderDomain.Folder, 0)
	for rows.Next() {
		var f folderDomain.Folder
		var idBytes, parentBytes []byte
		if err := rows.Scan(&idBytes, &f.Name, &parentBytes, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan folder row")
		}
		if err := f.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to unmarshal folder id")
		}
		if parentBytes != nil {
			var parentID uuid.UUID
			if err := parentID.UnmarshalBinary(parentBytes); err != nil {
				return nil, apperrors.WrapInternal(err, "failed to unmarshal parent id")
			}
			f.ParentID = &parentID
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate folder rows")
	}
	return out, nil
}

// Delete removes a folder row.
func (m *MySQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(id)
	if err != nil {
		return err
	}
	res, err := querier.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, idBytes)
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
func (m *MySQLRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(id)
	if err != nil {
		return false, err
	}
	var exists bool
	err = querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM folders WHERE parent_id = ?)`, idBytes).Scan(&exists)
	if err != nil {
		return false, apperrors.WrapInternal(err, "failed to check folder children")
	}
	return exists, nil
}
