package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	redisadapter "github.com/target/gatekeeper/internal/adapters/redis"
	"github.com/target/gatekeeper/internal/bootstrap"
	"github.com/target/gatekeeper/internal/data"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/migrate"
)

var errRedisCacheDisabled = errors.New("redis identity cache is disabled (IDENTITY_CACHE_REDIS_ENABLED=false)")

// withDatabase connects to Postgres for the duration of fn.
func withDatabase(cmdCtx *commandContext, timeout time.Duration, fn func(ctx context.Context, db *sql.DB) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	return fn(ctx, db)
}

// withIdentityRepo ensures the schema is current before handing out the repository.
func withIdentityRepo(cmdCtx *commandContext, fn func(ctx context.Context, repo *data.IdentityRepo) error) error {
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		pending, err := migrate.Pending(ctx, db)
		if err != nil {
			return fmt.Errorf("check migrations: %w", err)
		}
		if len(pending) > 0 {
			return fmt.Errorf("%d pending migrations; run gatekeeper-admin migrate first", len(pending))
		}
		return fn(ctx, data.NewIdentityRepo(db))
	})
}

// withIdentityCache connects to Redis and builds the identity cache used by the service.
// The cache has no backing store; it is only used for eviction.
func withIdentityCache(
	cmdCtx *commandContext,
	fn func(ctx context.Context, cache *redisadapter.IdentityCache) error,
) error {
	if !cmdCtx.Config.Identity.Cache.RedisEnabled {
		return errRedisCacheDisabled
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func(c redis.UniversalClient) {
		if closeErr := c.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}(client)

	cache, err := redisadapter.NewIdentityCache(redisadapter.IdentityCacheOptions{
		Client: client,
		Next:   unusedResolver{},
		TTL:    cmdCtx.Config.Identity.Cache.RedisTTL,
		Prefix: cmdCtx.Config.Identity.Cache.RedisPrefix,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return fn(ctx, cache)
}

// unusedResolver backs an eviction-only cache.
type unusedResolver struct{}

func (unusedResolver) FindByIdentifier(context.Context, string) (domainauth.Identity, error) {
	return domainauth.Identity{}, domainauth.ErrIdentityNotFound
}
