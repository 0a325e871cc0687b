package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/database"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// PostgreSQLRepository implements Repository for PostgreSQL, storing roles
// and permissions as JSON arrays.
type PostgreSQLRepository struct {
	db *sql.DB
}

// NewPostgreSQLRepository builds a PostgreSQLRepository.
func NewPostgreSQLRepository(db *sql.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{db: db}
}

// Create inserts a new client row.
func (p *PostgreSQLRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, permsJSON, err := marshalSets(client)
	if err != nil {
		return err
	}

	const query = `INSERT INTO clients (id, name, secret, active, roles, permissions, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = querier.ExecContext(ctx, query,
		client.ID, client.Name, client.Secret, client.Active, rolesJSON, permsJSON, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to create client")
	}
	return nil
}

// Update persists client's mutable fields.
func (p *PostgreSQLRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, permsJSON, err := marshalSets(client)
	if err != nil {
		return err
	}

	const query = `UPDATE clients
	               SET name = $1, secret = $2, active = $3, roles = $4, permissions = $5, updated_at = $6
	               WHERE id = $7`
	_, err = querier.ExecContext(ctx, query,
		client.Name, client.Secret, client.Active, rolesJSON, permsJSON, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return apperrors.WrapInternal(err, "failed to update client")
	}
	return nil
}

func scanClient(row interface{ Scan(...any) error }) (*authDomain.Client, error) {
	var c authDomain.Client
	var rolesJSON, permsJSON []byte
	err := row.Scan(&c.ID, &c.Name, &c.Secret, &c.Active, &rolesJSON, &permsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "client not found")
		}
		return nil, apperrors.WrapInternal(err, "failed to scan client")
	}
	if err := unmarshalSets(&c, rolesJSON, permsJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a client by id.
func (p *PostgreSQLRepository) Get(ctx context.Context, id uuid.UUID) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients WHERE id = $1`
	return scanClient(querier.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a client by its unique name.
func (p *PostgreSQLRepository) GetByName(ctx context.Context, name string) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients WHERE name = $1`
	return scanClient(querier.QueryRowContext(ctx, query, name))
}

// List returns a page of clients ordered by creation time, most recent first.
func (p *PostgreSQLRepository) List(ctx context.Context, limit, offset int) ([]*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)
	const query = `SELECT id, name, secret, active, roles, permissions, created_at, updated_at
	               FROM clients ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to list clients")
	}
	defer rows.Close()

	clients := make([]*authDomain.Client, 0)
	for rows.Next() {
		var c authDomain.Client
		var rolesJSON, permsJSON []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Secret, &c.Active, &rolesJSON, &permsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.WrapInternal(err, "failed to scan client row")
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

// Count returns the total number of client rows, used to decide whether the
// admin bootstrap client needs seeding.
func (p *PostgreSQLRepository) Count(ctx context.Context) (int, error) {
	querier := database.GetTx(ctx, p.db)
	var n int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, apperrors.WrapInternal(err, "failed to count clients")
	}
	return n, nil
}

func marshalSets(client *authDomain.Client) ([]byte, []byte, error) {
	rolesJSON, err := json.Marshal(client.Roles)
	if err != nil {
		return nil, nil, apperrors.WrapInternal(err, "failed to marshal client roles")
	}
	permsJSON, err := json.Marshal(client.Permissions)
	if err != nil {
		return nil, nil, apperrors.WrapInternal(err, "failed to marshal client permissions")
	}
	return rolesJSON, permsJSON, nil
}

func unmarshalSets(c *authDomain.Client, rolesJSON, permsJSON []byte) error {
	if err := json.Unmarshal(rolesJSON, &c.Roles); err != nil {
		return apperrors.WrapInternal(err, "failed to unmarshal client roles")
	}
	if err := json.Unmarshal(permsJSON, &c.Permissions); err != nil {
		return apperrors.WrapInternal(err, "failed to unmarshal client permissions")
	}
	return nil
}
