package app

import (
	"context"

	"github.com/sealedbox/sealedbox/internal/database"
	secretsHTTP "github.com/sealedbox/sealedbox/internal/secrets/http"
	secretsRepoPkg "github.com/sealedbox/sealedbox/internal/secrets/repository"
	secretsUseCase "github.com/sealedbox/sealedbox/internal/secrets/usecase"
)

func (c *Container) secretsRepo() (secretsRepoPkg.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	switch c.cfg.DBDriver {
	case "mysql":
		return secretsRepoPkg.NewMySQLRepository(db), nil
	default:
		return secretsRepoPkg.NewPostgreSQLRepository(db), nil
	}
}

// SecretsUseCase returns the secret CRUD usecase, wired to the shared DEK
// key ring and rotation pool.
func (c *Container) SecretsUseCase(ctx context.Context) (*secretsUseCase.UseCase, error) {
	if c.secretsUseCase != nil {
		return c.secretsUseCase, nil
	}

	repo, err := c.secretsRepo()
	if err != nil {
		return nil, err
	}
	pool, err := c.RotationPool(ctx)
	if err != nil {
		return nil, err
	}
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	c.secretsUseCase = secretsUseCase.New(database.NewTxManager(db), repo, c.KeyRing(), pool, bm)
	return c.secretsUseCase, nil
}

// SecretHandler returns the secret CRUD HTTP handler.
func (c *Container) SecretHandler(ctx context.Context) (*secretsHTTP.Handler, error) {
	if c.secretHandler != nil {
		return c.secretHandler, nil
	}
	uc, err := c.SecretsUseCase(ctx)
	if err != nil {
		return nil, err
	}
	c.secretHandler = secretsHTTP.NewHandler(uc, c.logger)
	return c.secretHandler, nil
}
