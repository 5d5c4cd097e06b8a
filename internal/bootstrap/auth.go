package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/target/gatekeeper/config"
	"github.com/target/gatekeeper/internal/adapters/bcrypt"
	"github.com/target/gatekeeper/internal/adapters/jwtcodec"
	"github.com/target/gatekeeper/internal/adapters/lrucache"
	"github.com/target/gatekeeper/internal/adapters/memstore"
	redisadapter "github.com/target/gatekeeper/internal/adapters/redis"
	"github.com/target/gatekeeper/internal/data"
	"github.com/target/gatekeeper/internal/observability/statsd"
	"github.com/target/gatekeeper/internal/ports"
	"github.com/target/gatekeeper/internal/service"
)

// BuildKeyfunc resolves token verification keys from the configured source.
// For the oidc source the issuer reported by discovery is returned so it can be enforced.
// Remote sources refresh in the background until ctx is canceled.
func BuildKeyfunc(ctx context.Context, cfg config.TokenConfig) (jwt.Keyfunc, string, error) {
	switch cfg.KeySource {
	case config.KeySourceHMAC:
		kf, err := jwtcodec.HMACKeyfunc([]byte(cfg.Secret))
		return kf, "", err
	case config.KeySourceRSAPEM:
		pemBytes, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, "", fmt.Errorf("read public key: %w", err)
		}
		kf, err := jwtcodec.RSAPublicKeyfunc(pemBytes)
		return kf, "", err
	case config.KeySourceJWKS:
		kf, err := jwtcodec.JWKSKeyfunc(ctx, cfg.JWKSURL)
		return kf, "", err
	case config.KeySourceOIDC:
		return jwtcodec.OIDCKeyfunc(ctx, cfg.OIDCIssuer)
	default:
		return nil, "", fmt.Errorf("unknown key source %q", cfg.KeySource)
	}
}

// BuildTokenCodec creates the JWT codec for cfg.
func BuildTokenCodec(ctx context.Context, cfg config.TokenConfig) (*jwtcodec.Codec, error) {
	kf, discoveredIssuer, err := BuildKeyfunc(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("token keys: %w", err)
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = discoveredIssuer
	}
	return jwtcodec.New(jwtcodec.Config{
		Keyfunc:    kf,
		Algorithms: cfg.Algorithms,
		Issuer:     issuer,
		Audience:   cfg.Audience,
		Leeway:     cfg.Leeway,
	})
}

// IdentityDeps holds the infrastructure the identity resolver may use.
type IdentityDeps struct {
	Config      config.IdentityConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// IdentityResolvers exposes the resolver stack.
type IdentityResolvers struct {
	// Store is the backing store; it returns password hashes.
	Store ports.IdentityResolver
	// Cached layers the configured caches over Store for token authentication.
	Cached ports.IdentityResolver
	// Local is the in-process cache, nil when disabled.
	Local *lrucache.IdentityCache
}

// BuildIdentityResolvers creates the backing store and wraps it in the configured caches,
// Redis first and the in-process LRU outermost.
func BuildIdentityResolvers(deps IdentityDeps) (IdentityResolvers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var store ports.IdentityResolver
	switch deps.Config.Store {
	case config.IdentityStoreMemory:
		mem, err := memstore.LoadFile(deps.Config.SeedFile)
		if err != nil {
			return IdentityResolvers{}, fmt.Errorf("load identity seed: %w", err)
		}
		logger.Info("identity store loaded", "store", "memory", "identities", mem.Len())
		store = mem
	case config.IdentityStorePostgres:
		if deps.DB == nil {
			return IdentityResolvers{}, errors.New("postgres identity store requires a database connection")
		}
		store = data.NewIdentityRepo(deps.DB)
	default:
		return IdentityResolvers{}, fmt.Errorf("unknown identity store %q", deps.Config.Store)
	}

	out := IdentityResolvers{Store: store, Cached: store}

	cacheCfg := deps.Config.Cache
	if cacheCfg.RedisEnabled {
		if deps.RedisClient == nil {
			return IdentityResolvers{}, errors.New("redis identity cache requires a redis client")
		}
		rc, err := redisadapter.NewIdentityCache(redisadapter.IdentityCacheOptions{
			Client: deps.RedisClient,
			Next:   out.Cached,
			TTL:    cacheCfg.RedisTTL,
			Prefix: cacheCfg.RedisPrefix,
			Logger: logger,
		})
		if err != nil {
			return IdentityResolvers{}, fmt.Errorf("redis identity cache: %w", err)
		}
		out.Cached = rc
	}

	if cacheCfg.LocalSize > 0 {
		lc, err := lrucache.New(lrucache.Options{Next: out.Cached, Size: cacheCfg.LocalSize, TTL: cacheCfg.LocalTTL})
		if err != nil {
			return IdentityResolvers{}, fmt.Errorf("local identity cache: %w", err)
		}
		out.Local = lc
		out.Cached = lc
	}

	return out, nil
}

// AuthDeps groups inputs for BuildAuthenticators.
type AuthDeps struct {
	Auth      config.AuthConfig
	Resolvers IdentityResolvers
	Codec     ports.TokenCodec
	Metrics   statsd.Sink
	Logger    *slog.Logger
	Now       func() time.Time
}

// Authenticators are the pipeline stages built from configuration.
type Authenticators struct {
	Token    *service.AuthnService
	Password *service.PasswordAuthnService
}

// BuildAuthenticators creates the token stage and, when enabled, the password stage.
// The password stage reads the uncached store because caches drop password hashes.
func BuildAuthenticators(deps AuthDeps) (Authenticators, error) {
	if deps.Codec == nil {
		return Authenticators{}, errors.New("token codec is required")
	}
	token, err := service.NewAuthnService(service.AuthnServiceOptions{
		Codec:    deps.Codec,
		Resolver: deps.Resolvers.Cached,
		Scheme:   deps.Auth.Token.Scheme,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
		Now:      deps.Now,
	})
	if err != nil {
		return Authenticators{}, fmt.Errorf("token authenticator: %w", err)
	}
	out := Authenticators{Token: token}

	if deps.Auth.PasswordStageEnabled {
		pw, err := service.NewPasswordAuthnService(service.PasswordAuthnServiceOptions{
			Resolver: deps.Resolvers.Store,
			Verifier: bcrypt.Hasher{Cost: deps.Auth.BcryptCost},
			Metrics:  deps.Metrics,
			Logger:   deps.Logger,
			Now:      deps.Now,
		})
		if err != nil {
			return Authenticators{}, fmt.Errorf("password authenticator: %w", err)
		}
		out.Password = pw
	}
	return out, nil
}
