package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/gatekeeper/config"
	"github.com/target/gatekeeper/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(slog.LevelInfo)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	// Re-initialize at the configured level now that config is known.
	logger = bootstrap.InitLogger(cfg.Observability.SlogLevel())
	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, &cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	attrs := []any{
		"addr", cfg.HTTP.Addr,
		"key_source", cfg.Auth.Token.KeySource,
		"algorithms", cfg.Auth.Token.Algorithms,
		"identity_store", cfg.Identity.Store,
		"password_stage", cfg.Auth.PasswordStageEnabled,
		"session_mode", cfg.Routes.SessionMode,
		"dev_mode", cfg.IsDev,
	}
	if cfg.NeedsPostgres() {
		attrs = append(attrs,
			"db_host", cfg.Postgres.Host,
			"db_port", cfg.Postgres.Port,
			"db_name", cfg.Postgres.Name,
		)
	}
	logger.InfoContext(ctx, "starting gatekeeper", attrs...)
}
