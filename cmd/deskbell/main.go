package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pmstoolbox/deskbell/adapter/cli"
	"github.com/pmstoolbox/deskbell/pkg/config"
	"github.com/pmstoolbox/deskbell/pkg/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.LoggerFromEnv()
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	// Management commands open the store on demand; the serve command
	// builds its own full wiring.
	provider := func(ctx context.Context) (*cli.App, error) {
		return cli.NewApp(ctx, cfg, logger)
	}

	cli.AddCommand(cli.NewServeCommand(cfg))
	cli.AddCommand(cli.NewReminderCommand(provider))
	cli.AddCommand(cli.NewSettingsCommand(provider))

	cli.Execute()
}
