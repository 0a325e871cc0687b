package app

import (
	"context"
	"fmt"

	"github.com/sealedbox/sealedbox/internal/crypto/dek"
	dekHTTP "github.com/sealedbox/sealedbox/internal/crypto/dek/http"
	dekRepoPkg "github.com/sealedbox/sealedbox/internal/crypto/dek/repository"
	dekUseCase "github.com/sealedbox/sealedbox/internal/crypto/dek/usecase"
	"github.com/sealedbox/sealedbox/internal/crypto/rotation"
	"github.com/sealedbox/sealedbox/internal/database"
)

// dekRepo is built once per container, dialect-selected by cfg.DBDriver.
func (c *Container) dekRepo() (dekRepoPkg.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	switch c.cfg.DBDriver {
	case "mysql":
		return dekRepoPkg.NewMySQLRepository(db), nil
	default:
		return dekRepoPkg.NewPostgreSQLRepository(db), nil
	}
}

// KeyRing returns the process-resident DEK cache, created once.
func (c *Container) KeyRing() *dek.KeyRing {
	if c.keyRing == nil {
		c.keyRing = dek.NewKeyRing()
	}
	return c.keyRing
}

// DekUseCase returns the DEK lifecycle usecase.
func (c *Container) DekUseCase(ctx context.Context) (*dekUseCase.UseCase, error) {
	if c.dekUseCase != nil {
		return c.dekUseCase, nil
	}

	repo, err := c.dekRepo()
	if err != nil {
		return nil, err
	}
	kmsAdapter, err := c.KMSAdapter(ctx)
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

	c.dekUseCase = dekUseCase.New(database.NewTxManager(db), repo, kmsAdapter, c.KeyRing(), 100, bm)
	return c.dekUseCase, nil
}

// bootstrapDeks unwraps every persisted DEK and populates the key ring. If
// none exist yet, it mints the first one so the process always has a
// default DEK before serving secret writes.
func (c *Container) bootstrapDeks(ctx context.Context) error {
	if c.deksBootstrapped {
		return nil
	}

	uc, err := c.DekUseCase(ctx)
	if err != nil {
		return err
	}
	if err := uc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap dek key ring: %w", err)
	}

	if c.KeyRing().DefaultID() == 0 {
		if _, err := uc.Create(ctx, "bootstrap"); err != nil {
			return fmt.Errorf("failed to mint initial dek: %w", err)
		}
	}

	c.deksBootstrapped = true
	return nil
}

// DekHandler returns the DEK management HTTP handler.
func (c *Container) DekHandler(ctx context.Context) (*dekHTTP.Handler, error) {
	if c.dekHandler != nil {
		return c.dekHandler, nil
	}
	uc, err := c.DekUseCase(ctx)
	if err != nil {
		return nil, err
	}
	c.dekHandler = dekHTTP.NewHandler(uc, c.logger)
	return c.dekHandler, nil
}

// RotationPool returns the opportunistic per-secret rotation worker pool,
// wired to re-encrypt through the secrets usecase once it exists.
func (c *Container) RotationPool(ctx context.Context) (*rotation.Pool, error) {
	if c.rotationPool != nil {
		return c.rotationPool, nil
	}

	c.rotationPool = rotation.NewPool(func(ctx context.Context, secretID string) error {
		uc, err := c.SecretsUseCase(ctx)
		if err != nil {
			return err
		}
		return uc.Reencrypt(ctx, secretID)
	}, c.logger, c.cfg.RotationQueueSize)

	return c.rotationPool, nil
}

// startRotationPool launches the rotation pool's background workers once.
func (c *Container) startRotationPool(ctx context.Context) {
	if c.rotationStarted {
		return
	}
	pool, err := c.RotationPool(ctx)
	if err != nil {
		c.logger.Error("failed to build rotation pool", "error", err)
		return
	}
	go pool.Run(ctx, c.cfg.RotationWorkerCount)
	c.rotationStarted = true
}
