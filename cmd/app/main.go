// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sealedbox/sealedbox/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "sealedbox secret store",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrationsFromEnv()
				},
			},
			{
				Name:  "create-client",
				Usage: "Register a new client and print its plain secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Unique client name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "roles",
						Usage: "Comma-separated roles (e.g. admin,writer)",
					},
					&cli.StringFlag{
						Name:  "permissions",
						Usage: "Comma-separated permissions (e.g. secret:read,secret:write)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateClient(ctx, cmd.String("name"), cmd.String("roles"), cmd.String("permissions"))
				},
			},
			{
				Name:  "rotate-kek",
				Usage: "Re-wrap every DEK under the KMS adapter's current default KEK",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateKek(ctx)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
