package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IdentityStore selects the identity resolver backend.
type IdentityStore string

const (
	// IdentityStoreMemory serves identities from a JSON seed file.
	IdentityStoreMemory IdentityStore = "memory"
	// IdentityStorePostgres serves identities from the identities table.
	IdentityStorePostgres IdentityStore = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityStore.
func (s *IdentityStore) UnmarshalText(text []byte) error {
	v := IdentityStore(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case IdentityStoreMemory, IdentityStorePostgres:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid IdentityStore: %q (valid options: memory, postgres)", v)
	}
}

// IdentityCacheConfig controls the cache decorators placed in front of the store.
type IdentityCacheConfig struct {
	RedisEnabled bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisTTL     time.Duration `env:"REDIS_TTL"     envDefault:"5m"`
	RedisPrefix  string        `env:"REDIS_PREFIX"  envDefault:"identity:"`
	// LocalSize of zero disables the in-process cache.
	LocalSize int           `env:"LOCAL_SIZE" envDefault:"1024"`
	LocalTTL  time.Duration `env:"LOCAL_TTL"  envDefault:"30s"`
}

// IdentityConfig selects and tunes the identity resolver.
type IdentityConfig struct {
	Store    IdentityStore       `env:"IDENTITY_STORE"     envDefault:"memory"`
	SeedFile string              `env:"IDENTITY_SEED_FILE"`
	Cache    IdentityCacheConfig `                                            envPrefix:"IDENTITY_CACHE_"`
}

// Sanitize clamps cache settings.
func (c *IdentityConfig) Sanitize() {
	c.SeedFile = strings.TrimSpace(c.SeedFile)
	if c.Cache.RedisTTL <= 0 {
		c.Cache.RedisTTL = 5 * time.Minute
	}
	if c.Cache.RedisPrefix == "" {
		c.Cache.RedisPrefix = "identity:"
	}
	if c.Cache.LocalSize < 0 {
		c.Cache.LocalSize = 0
	}
	if c.Cache.LocalTTL <= 0 {
		c.Cache.LocalTTL = 30 * time.Second
	}
}

// Validate checks store specific requirements.
func (c *IdentityConfig) Validate() error {
	if c.Store == IdentityStoreMemory && c.SeedFile == "" {
		return errors.New("IDENTITY_SEED_FILE is required for the memory identity store")
	}
	return nil
}
