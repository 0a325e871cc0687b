package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sealedbox/sealedbox/internal/app"
	"github.com/sealedbox/sealedbox/internal/config"
)

// RunRotateKek re-wraps every DEK not already under the KMS adapter's
// current default KEK, one batch at a time, until none remain or a batch
// re-wraps none of its DEKs (every DEK in it failed). Safe to re-run: each
// call picks up wherever the previous one left off.
func RunRotateKek(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	kmsAdapter, err := container.KMSAdapter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize kms adapter: %w", err)
	}
	dekUseCase, err := container.DekUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dek use case: %w", err)
	}

	newKekID := kmsAdapter.DefaultKekID()
	logger.Info("rotating deks to new kek", slog.String("kek_id", newKekID))

	totalSuccess, totalFailures := 0, 0
	for {
		result, err := dekUseCase.RotateKEK(ctx, newKekID)
		if err != nil {
			return fmt.Errorf("failed to rotate kek: %w", err)
		}
		if result.Total == 0 {
			break
		}

		totalSuccess += result.Success
		totalFailures += len(result.Failures)
		for _, failure := range result.Failures {
			logger.Error("failed to rotate dek", slog.Any("dek_id", failure.ID), slog.String("error", failure.Error))
		}

		logger.Info("rotated batch", slog.Int("success", result.Success), slog.Int("failures", len(result.Failures)))
		if result.Success == 0 {
			break
		}
	}

	logger.Info("kek rotation completed",
		slog.Int("total_success", totalSuccess),
		slog.Int("total_failures", totalFailures),
	)
	return nil
}
