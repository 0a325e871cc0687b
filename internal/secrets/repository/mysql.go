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

// Create inserts a new secret row.
func (m *MySQLRepository) Create(ctx context.Context, s *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := marshalUUID(s.ID)
	if err != nil {
		return err
	}
	folderBytes, err := marshalNullableUUID(s.FolderID)
	if err != nil {
		return err
	}

	const query = `INSERT INTO secrets (id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at)
	               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = querier.ExecContext(ctx, query,
		idBytes, s.Name, s.EncryptedPackage, s.DekID, folderBytes, s.LastRotation, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create secret")
	}
	return nil
}

// Update persists a secret's mutable fields.
func (m *MySQLRepository) Update(ctx context.Context, s *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := marshalUUID(s.ID)
	if err != nil {
		return err
	}
	folderBytes, err := marshalNullableUUID(s.FolderID)
	if err != nil {
		return err
	}

	const query = `UPDATE secrets
	               SET encrypted_package = ?, dek_id = ?, folder_id = ?, last_rotation = ?, updated_at = ?
	               WHERE id = ?`
	_, err = querier.ExecContext(ctx, query,
		s.EncryptedPackage, s.DekID, folderBytes, s.LastRotation, s.UpdatedAt, idBytes,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update secret")
	}
	return nil
}

func scanMySQLSecret(row interface{ Scan(...any) error }) (*secretsDomain.Secret, error) {
	var s secretsDomain.Secret
	var idBytes, folderBytes []byte
	err := row.Scan(&idBytes, &s.Name, &s.EncryptedPackage, &s.DekID, &folderBytes, &s.LastRotation, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan secret")
	}
	if err := s.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to unmarshal secret id")
	}
	if folderBytes != nil {
		var folderID uuid.UUID
		if err := folderID.UnmarshalBinary(folderBytes); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to unmarshal folder id")
		}
		s.FolderID = &folderID
	}
	return &s, nil
}

// GetByID fetches a secret by id.
func (m *MySQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(id)
	if err != nil {
		return nil, err
	}
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE id = ?`
	return scanMySQLSecret(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByName fetches a secret by its unique name.
func (m *MySQLRepository) GetByName(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE name = ?`
	return scanMySQLSecret(querier.QueryRowContext(ctx, query, name))
}

func (m *MySQLRepository) scanRows(rows *sql.Rows) ([]*secretsDomain.Secret, error) {
	defer rows.Close()
	out := make([]*secretsDomain.Secret, 0)
	for rows.Next() {
		var s secretsDomain.Secret
		var idBytes, folderBytes []byte
		if err := rows.Scan(&idBytes, &s.Name, &s.EncryptedPackage, &s.DekID, &folderBytes, &s.LastRotation, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan secret row")
		}
		if err := s.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to unmarshal secret id")
		}
		if folderBytes != nil {
			var folderID uuid.UUID
			if err := folderID.UnmarshalBinary(folderBytes); err != nil {
				return nil, apperrors.WrapInternal(err, "failed to unmarshal folder id")
			}
			s.FolderID = &folderID
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate secret rows")
	}
	return out, nil
}

// List returns a page of secrets, optionally scoped to folderID.
func (m *MySQLRepository) List(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	var rows *sql.Rows
	var err error
	if folderID != nil {
		folderBytes, mErr := marshalUUID(*folderID)
		if mErr != nil {
			return nil, mErr
		}
		const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
		               FROM secrets WHERE folder_id = ? ORDER BY name ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, folderBytes, limit, offset)
	} else {
		const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
		               FROM secrets ORDER BY name ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list secrets")
	}
	return m.scanRows(rows)
}

// ListByDekID returns up to batchSize secrets still wrapped under dekID.
func (m *MySQLRepository) ListByDekID(ctx context.Context, dekID uint32, batchSize int) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, encrypted_package, dek_id, folder_id, last_rotation, created_at, updated_at
	               FROM secrets WHERE dek_id = ? ORDER BY id ASC LIMIT ?`
	rows, err := querier.QueryContext(ctx, query, dekID, batchSize)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list secrets by dek id")
	}
	return m.scanRows(rows)
}

// Delete removes a secret row.
func (m *MySQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := marshalUUID(id)
	if err != nil {
		return err
	}
	res, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, idBytes)
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
