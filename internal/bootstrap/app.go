package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/gatekeeper/config"
	httpx "github.com/target/gatekeeper/internal/http"
)

// Infrastructure holds the external connections opened for the configuration.
type Infrastructure struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
}

// Close releases every open connection.
func (i *Infrastructure) Close() error {
	var errs []error
	if i.RedisClient != nil {
		if err := i.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConnectInfrastructure opens only the connections the configuration needs.
func ConnectInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	if cfg.NeedsPostgres() {
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		infra.DB = db
	}
	if cfg.NeedsRedis() {
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", err), infra.Close())
		}
		infra.RedisClient = client
	}
	return infra, nil
}

// readinessChecks exposes the open connections on /readyz.
func (i *Infrastructure) readinessChecks() map[string]httpx.ReadinessCheck {
	checks := map[string]httpx.ReadinessCheck{}
	if i.DB != nil {
		checks["postgres"] = i.DB.PingContext
	}
	if i.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return i.RedisClient.Ping(ctx).Err() }
	}
	return checks
}

// Run wires the service from cfg and serves HTTP until ctx is canceled,
// SIGINT/SIGTERM arrives or the server fails.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (err error) {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := ConnectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close infrastructure failed", "error", cerr)
		}
	}()

	if infra.DB != nil {
		if cfg.Postgres.RunMigrationsOnStart {
			if err = RunMigrations(ctx, infra.DB, logger); err != nil {
				return err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	metrics, err := BuildMetrics(ctx, cfg.Observability.Metrics, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer func() {
		if cerr := metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics failed", "error", cerr)
		}
	}()

	codec, err := BuildTokenCodec(ctx, cfg.Auth.Token)
	if err != nil {
		return err
	}
	resolvers, err := BuildIdentityResolvers(IdentityDeps{
		Config:      cfg.Identity,
		DB:          infra.DB,
		RedisClient: infra.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	authenticators, err := BuildAuthenticators(AuthDeps{
		Auth:      cfg.Auth,
		Resolvers: resolvers,
		Codec:     codec,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	handler, err := BuildHTTPHandler(HTTPHandlerConfig{
		Config:         cfg,
		Authenticators: authenticators,
		Readiness:      infra.readinessChecks(),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(logger, handler, cfg.HTTP, errCh)

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutdown signal received")
	case err = <-errCh:
	}

	if shutdownErr := ShutdownHTTPServer(ctx, server, cfg.HTTP.ShutdownTimeout, logger); shutdownErr != nil {
		err = errors.Join(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
	}
	return err
}
