// Package app wires the dependency graph: configuration, database
// connection, KMS adapter, DEK key ring, repositories, usecases, HTTP
// handlers, and the two HTTP servers (public API and metrics). Everything
// is built lazily and cached on first use, following Connect-once,
// build-top-down dependency construction.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	authHTTP "github.com/sealedbox/sealedbox/internal/auth/http"
	"github.com/sealedbox/sealedbox/internal/auth/password"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	authUseCase "github.com/sealedbox/sealedbox/internal/auth/usecase"
	"github.com/sealedbox/sealedbox/internal/config"
	"github.com/sealedbox/sealedbox/internal/crypto/dek"
	dekHTTP "github.com/sealedbox/sealedbox/internal/crypto/dek/http"
	dekUseCase "github.com/sealedbox/sealedbox/internal/crypto/dek/usecase"
	"github.com/sealedbox/sealedbox/internal/crypto/kms"
	"github.com/sealedbox/sealedbox/internal/crypto/rotation"
	"github.com/sealedbox/sealedbox/internal/database"
	folderHTTP "github.com/sealedbox/sealedbox/internal/folder/http"
	folderUseCase "github.com/sealedbox/sealedbox/internal/folder/usecase"
	appHTTP "github.com/sealedbox/sealedbox/internal/http"
	"github.com/sealedbox/sealedbox/internal/metrics"
	secretsHTTP "github.com/sealedbox/sealedbox/internal/secrets/http"
	secretsUseCase "github.com/sealedbox/sealedbox/internal/secrets/usecase"
)

// Container owns every long-lived dependency the application needs,
// constructing each one lazily and only once.
type Container struct {
	cfg    *config.Config
	logger *slog.Logger

	db              *sql.DB
	kmsAdapter      kms.Adapter
	metrics         *metrics.Provider
	metricsClosed   bool
	businessMetrics metrics.BusinessMetrics

	keyRing          *dek.KeyRing
	dekUseCase       *dekUseCase.UseCase
	dekHandler       *dekHTTP.Handler
	deksBootstrapped bool

	rotationPool    *rotation.Pool
	rotationStarted bool

	passwordHasher *password.Hasher
	tokenService   *token.Service
	authUseCase    *authUseCase.UseCase
	authHandler    *authHTTP.Handler
	adminBootstrapped bool

	secretsUseCase *secretsUseCase.UseCase
	secretHandler  *secretsHTTP.Handler

	folderUseCase *folderUseCase.UseCase
	folderHandler *folderHTTP.Handler
}

// NewContainer builds a Container bound to cfg. Nothing else is
// initialized until the corresponding accessor is called.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel),
	}
}

// Logger returns the application's structured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// DB returns the shared database connection, opening it on first call.
func (c *Container) DB() (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := database.Connect(database.Config{
		Driver:             c.cfg.DBDriver,
		ConnectionString:   c.cfg.DBConnectionString,
		MaxOpenConnections: c.cfg.DBMaxOpenConnections,
		MaxIdleConnections: c.cfg.DBMaxIdleConnections,
		ConnMaxLifetime:    c.cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.db = db
	return c.db, nil
}

// KMSAdapter returns the configured KMS adapter, production or development
// depending on cfg.KMSMode.
func (c *Container) KMSAdapter(ctx context.Context) (kms.Adapter, error) {
	if c.kmsAdapter != nil {
		return c.kmsAdapter, nil
	}

	switch c.cfg.KMSMode {
	case config.KMSModeProduction:
		adapter, err := kms.NewProductionAdapter(ctx, c.cfg.KMSKeyPath, c.cfg.KMSTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create production kms adapter: %w", err)
		}
		c.kmsAdapter = adapter
	default:
		adapter, err := kms.NewDevelopmentAdapter(c.cfg.DevKEK)
		if err != nil {
			return nil, fmt.Errorf("failed to create development kms adapter: %w", err)
		}
		c.kmsAdapter = adapter
	}
	return c.kmsAdapter, nil
}

// MetricsProvider returns the shared OpenTelemetry/Prometheus metrics
// provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if c.metrics != nil {
		return c.metrics, nil
	}
	provider, err := metrics.NewProvider(c.cfg.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	c.metrics = provider
	return c.metrics, nil
}

// BusinessMetrics returns the shared business-operation metrics recorder
// (rotation outcomes, auth failures, envelope authentication failures).
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if c.businessMetrics != nil {
		return c.businessMetrics, nil
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.cfg.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	c.businessMetrics = bm
	return c.businessMetrics, nil
}

// HTTPServer builds the public API server with every route wired.
func (c *Container) HTTPServer(ctx context.Context) (*appHTTP.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	if err := c.bootstrapDeks(ctx); err != nil {
		return nil, err
	}
	if err := c.bootstrapAdmin(ctx); err != nil {
		return nil, err
	}

	tokens, err := c.TokenService()
	if err != nil {
		return nil, err
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, err
	}
	dekHandler, err := c.DekHandler(ctx)
	if err != nil {
		return nil, err
	}
	secretHandler, err := c.SecretHandler(ctx)
	if err != nil {
		return nil, err
	}
	folderHandler, err := c.FolderHandler()
	if err != nil {
		return nil, err
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	c.startRotationPool(ctx)

	server := appHTTP.NewServer(db, c.cfg.ServerHost, c.cfg.ServerPort, c.logger)
	server.SetupRouter(c.cfg, tokens, authHandler, dekHandler, secretHandler, folderHandler, metricsProvider, c.cfg.MetricsNamespace)
	return server, nil
}

// MetricsServer builds the standalone Prometheus scrape-target server.
func (c *Container) MetricsServer() (*appHTTP.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	return appHTTP.NewMetricsServer(c.cfg.MetricsHost, c.cfg.MetricsPort, c.logger, provider), nil
}

// Shutdown releases every resource the container opened.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.metrics != nil && !c.metricsClosed {
		if err := c.metrics.Shutdown(ctx); err != nil {
			firstErr = err
		}
		c.metricsClosed = true
	}
	if closer, ok := c.kmsAdapter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
