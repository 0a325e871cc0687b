package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// MySQLRepository implements Repository for MySQL, storing the client id as
// BINARY(16) and roles/permissions as JSON arrays.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository builds a MySQLRepository.
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Create inserts a new client row.
func (m *MySQLRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.WrapInternal(err, "failed to marshal client id")
	}
	rolesJSON, permsJSON, err := marshalSets(client)
	if err != nil {
		return err
	}

	const query = `INSERT INTO clients (id, name, secret, active, roles, permissions, created_at, updated_at)
	               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = querier.ExecContext(ctx, query,
		idBytes, client.Name, client.Secret, client.Active, rolesJSON, permsJSON, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create client")
	}
	return nil
}

// Update persists client's mutable fields.
func (m *MySQLRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.WrapInternal(err, "failed to marshal client id")
	}
	rolesJSON, permsJSON, err := marshalSets(client)
	if err != nil {
		return err
	}

	const query = `UPDATE clients
	               SET name = ?, secret = ?, active = ?, roles = ?, permissions = ?, updated_at = ?
	               WHERE id = ?`
	_, err = querier.ExecContext(ctx, query,
		client.Name, client.Secret, client.Active, rolesJSON, permsJSON, client.UpdatedAt, idBytes,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update client")
	}
	return nil
}

func scanMySQLClient(row interface{ Scan(...any) error }) (*authDomain.Client, error) {
	var c authDomain.Client
	var idBytes, rolesJSON, permsJSON []byte
	err := row.Scan(&idBytes, &c.Name, &c.Secret, &c.Active, &rolesJSON, &permsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "client not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan client")
	}
	if err := c.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to unmarshal client id")
	}
	if err := unmarshalSets(&c, rolesJSON, permsJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a client by id.
func (m *MySQLRepository) Get(ctx context.Context, id uuid.UUID) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to marshal client id")
	}
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients WHERE id = ?`
	return scanMySQLClient(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByName retrieves a client by its unique name.
func (m *MySQLRepository) GetByName(ctx context.Context, name string) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients WHERE name = ?`
	return scanMySQLClient(querier.QueryRowContext(ctx, query, name))
}

// List returns a page of clients ordered by creation time, most recent first.
func (m *MySQLRepository) List(ctx context.Context, limit, offset int) ([]*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list clients")
	}
	defer rows.Close()

	clients := make([]*authDomain.Client, 0)
	for rows.Next() {
		var c authDomain.Client
		var idBytes, rolesJSON, permsJSON []byte
		if err := rows.Scan(&idBytes, &c.Name, &c.Secret, &c.Active, &rolesJSON, &permsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan client row")
		}
		if err := c.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to unmarshal client id")
		}
		if err := unmarshalSets(&c, rolesJSON, permsJSON); err != nil {
			return nil, err
		}
		clients = append(clients, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapInternal(err, "failed to iterate client rows")
	}
	return clients, nil
}

// Count returns the total number of client rows.
func (m *MySQLRepository) Count(ctx context.Context) (int, error) {
	querier := database.GetTx(ctx, m.db)
	var n int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, apperrors.WrapInternal(err, "failed to count clients")
	}
	return n, nil
}
