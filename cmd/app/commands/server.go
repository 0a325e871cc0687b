package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/sealedbox/sealedbox/internal/app"
	"github.com/sealedbox/sealedbox/internal/config"
)

// RunServer starts the HTTP server with graceful shutdown support.
// Loads configuration, initializes the DI container, and starts the Gin HTTP server.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error. On shutdown
// signal, gracefully stops the server within DBConnMaxLifetime timeout.
func RunServer(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()
	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
		if len(shutdownErrors) > 0 {
			return errors.Join(shutdownErrors...)
		}
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		shutdownErrors := []error{err}
		if shutErr := server.Shutdown(shutdownCtx); shutErr != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", shutErr))
		}
		if shutErr := metricsServer.Shutdown(shutdownCtx); shutErr != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", shutErr))
		}
		return errors.Join(shutdownErrors...)
	}

	return nil
}
