package redis

// Package redis provides Redis-backed adapters for gatekeeper.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/ports"
)

// DefaultIdentityTTL bounds how long a resolved identity may be served from Redis.
const DefaultIdentityTTL = 5 * time.Minute

// DefaultIdentityPrefix is the key prefix for cached identities.
const DefaultIdentityPrefix = "identity:"

// IdentityCacheOptions configures an IdentityCache.
type IdentityCacheOptions struct {
	Client redis.UniversalClient
	Next   ports.IdentityResolver
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

// IdentityCache is a read-through cache in front of another IdentityResolver.
// Only positive results are cached and password hashes never leave the process.
// Redis failures are logged and the lookup falls through to the next resolver.
type IdentityCache struct {
	client redis.UniversalClient
	next   ports.IdentityResolver
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

var _ ports.IdentityResolver = (*IdentityCache)(nil)

// cachedIdentity is the wire form stored in Redis.
type cachedIdentity struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

// NewIdentityCache creates a Redis identity cache.
func NewIdentityCache(opts IdentityCacheOptions) (*IdentityCache, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Next == nil {
		return nil, errors.New("next resolver is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultIdentityPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityCache{
		client: opts.Client,
		next:   opts.Next,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With("component", "identity_cache", "backend", "redis"),
	}, nil
}

// FindByIdentifier returns the cached identity or resolves and caches it.
func (c *IdentityCache) FindByIdentifier(ctx context.Context, id string) (domainauth.Identity, error) {
	if id == "" {
		return domainauth.Identity{}, domainauth.ErrIdentityNotFound
	}

	if ident, ok := c.get(ctx, id); ok {
		return ident, nil
	}

	ident, err := c.next.FindByIdentifier(ctx, id)
	if err != nil {
		return domainauth.Identity{}, err
	}

	c.set(ctx, ident)
	return ident, nil
}

// Evict removes id from the cache. It reports whether a key was deleted.
func (c *IdentityCache) Evict(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := c.client.Del(ctx, c.prefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

func (c *IdentityCache) get(ctx context.Context, id string) (domainauth.Identity, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "identity cache read failed", "error", err)
		}
		return domainauth.Identity{}, false
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil || cached.ID != id {
		c.logger.WarnContext(ctx, "discarding corrupt identity cache entry", "error", err)
		if delErr := c.client.Del(ctx, c.prefix+id).Err(); delErr != nil {
			c.logger.WarnContext(ctx, "identity cache cleanup failed", "error", delErr)
		}
		return domainauth.Identity{}, false
	}
	if cached.Capabilities == nil {
		cached.Capabilities = []string{}
	}
	return domainauth.Identity{ID: cached.ID, Capabilities: cached.Capabilities}, true
}

func (c *IdentityCache) set(ctx context.Context, ident domainauth.Identity) {
	data, err := json.Marshal(cachedIdentity{ID: ident.ID, Capabilities: ident.Capabilities})
	if err != nil {
		c.logger.WarnContext(ctx, "marshal identity for cache failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+ident.ID, data, c.ttl).Err(); err != nil && ctx.Err() == nil {
		c.logger.WarnContext(ctx, "identity cache write failed", "error", err)
	}
}
