package app

import (
	"context"
	"fmt"

	authHTTP "github.com/sealedbox/sealedbox/internal/auth/http"
	"github.com/sealedbox/sealedbox/internal/auth/password"
	authRepoPkg "github.com/sealedbox/sealedbox/internal/auth/repository"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	authUseCase "github.com/sealedbox/sealedbox/internal/auth/usecase"
	"github.com/sealedbox/sealedbox/internal/database"
)

func (c *Container) authRepo() (authRepoPkg.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	switch c.cfg.DBDriver {
	case "mysql":
		return authRepoPkg.NewMySQLRepository(db), nil
	default:
		return authRepoPkg.NewPostgreSQLRepository(db), nil
	}
}

// PasswordHasher returns the shared Argon2id password hasher.
func (c *Container) PasswordHasher() (*password.Hasher, error) {
	if c.passwordHasher != nil {
		return c.passwordHasher, nil
	}
	hasher, err := password.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	c.passwordHasher = hasher
	return c.passwordHasher, nil
}

// TokenService returns the shared JWT issuance/verification service.
func (c *Container) TokenService() (*token.Service, error) {
	if c.tokenService != nil {
		return c.tokenService, nil
	}
	svc, err := token.New(c.cfg.TokenSigningKey, c.cfg.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	c.tokenService = svc
	return c.tokenService, nil
}

// AuthUseCase returns the client registration/authentication usecase.
func (c *Container) AuthUseCase() (*authUseCase.UseCase, error) {
	if c.authUseCase != nil {
		return c.authUseCase, nil
	}

	repo, err := c.authRepo()
	if err != nil {
		return nil, err
	}
	hasher, err := c.PasswordHasher()
	if err != nil {
		return nil, err
	}
	tokens, err := c.TokenService()
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

	c.authUseCase = authUseCase.New(database.NewTxManager(db), repo, hasher, tokens, bm)
	return c.authUseCase, nil
}

// bootstrapAdmin seeds the reserved admin client the first time the server
// starts against an empty client table. With ADMIN_BOOTSTRAP_SECRET unset,
// a random secret is generated and logged once; set, that secret is pinned
// instead, which still gets logged so the operator has a record but skips
// the scrape-the-log-on-first-boot step entirely.
func (c *Container) bootstrapAdmin(ctx context.Context) error {
	if c.adminBootstrapped {
		return nil
	}

	uc, err := c.AuthUseCase()
	if err != nil {
		return err
	}

	plainSecret, err := uc.BootstrapAdmin(ctx, c.cfg.AdminBootstrapSecret)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin client: %w", err)
	}
	if plainSecret != "" {
		c.logger.Warn("bootstrapped admin client — record this secret, it will not be shown again",
			"name", authUseCase.AdminBootstrapName,
			"secret", plainSecret,
		)
	}

	c.adminBootstrapped = true
	return nil
}

// AuthHandler returns the client management HTTP handler.
func (c *Container) AuthHandler() (*authHTTP.Handler, error) {
	if c.authHandler != nil {
		return c.authHandler, nil
	}
	uc, err := c.AuthUseCase()
	if err != nil {
		return nil, err
	}
	c.authHandler = authHTTP.NewHandler(uc, c.logger)
	return c.authHandler, nil
}
