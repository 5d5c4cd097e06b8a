package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: token and password authentication configuration
//   - routes.go: filter chain policy
//   - identity.go: identity store and cache configuration
//   - database.go: PostgreSQL and Redis connections
//   - http.go: HTTP server configuration
//   - observability.go: metrics and logging
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth     AuthConfig
	Routes   RoutesConfig
	Identity IdentityConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Routes.Sanitize()
	c.Identity.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports configuration combinations the service cannot start with.
func (c *AppConfig) Validate() error {
	return errors.Join(
		c.Auth.Validate(),
		c.Routes.Validate(),
		c.Identity.Validate(),
	)
}

// NeedsPostgres reports whether any enabled component talks to PostgreSQL.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Identity.Store == IdentityStorePostgres
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Identity.Cache.RedisEnabled
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
