package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sealedbox/sealedbox/internal/app"
	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/config"
)

// RunCreateClient registers a new client and prints its plain secret once.
// roles and permissions are comma-separated lists (e.g. "writer,reader").
func RunCreateClient(ctx context.Context, name, roles, permissions string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	authUseCase, err := container.AuthUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize auth use case: %w", err)
	}

	out, err := authUseCase.Register(ctx, &authDomain.RegisterClientInput{
		Name:        name,
		Roles:       splitCSV(roles),
		Permissions: splitCSV(permissions),
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	logger.Warn("client created — record this secret, it will not be shown again",
		slog.String("id", out.ID.String()),
		slog.String("name", name),
		slog.String("secret", out.PlainSecret),
	)
	return nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
