package lrucache

// Package lrucache provides an in-process identity cache with expiring entries.

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSize is the number of identities retained when Options.Size is zero.
	DefaultSize = 1024
	// DefaultTTL is the entry lifetime when Options.TTL is zero.
	DefaultTTL = 30 * time.Second
	// DefaultLookupTimeout bounds a shared lookup once it is detached from its callers.
	DefaultLookupTimeout = 5 * time.Second
)

// Options configures an IdentityCache.
type Options struct {
	Next ports.IdentityResolver
	Size int
	TTL  time.Duration
	// LookupTimeout caps the shared call to Next. Zero means DefaultLookupTimeout.
	LookupTimeout time.Duration
}

// IdentityCache memoizes positive lookups of the next resolver and collapses
// concurrent lookups for the same identifier into one call.
type IdentityCache struct {
	next    ports.IdentityResolver
	cache   *expirable.LRU[string, domainauth.Identity]
	group   singleflight.Group
	timeout time.Duration
}

var _ ports.IdentityResolver = (*IdentityCache)(nil)

// New creates an IdentityCache.
func New(opts Options) (*IdentityCache, error) {
	if opts.Next == nil {
		return nil, errors.New("next resolver is required")
	}
	if opts.Size < 0 {
		return nil, errors.New("cache size must not be negative")
	}
	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &IdentityCache{
		next:    opts.Next,
		cache:   expirable.NewLRU[string, domainauth.Identity](size, nil, ttl),
		timeout: timeout,
	}, nil
}

// FindByIdentifier returns a cached identity or resolves it through the next resolver.
// Not-found results are never cached.
func (c *IdentityCache) FindByIdentifier(ctx context.Context, id string) (domainauth.Identity, error) {
	if id == "" {
		return domainauth.Identity{}, domainauth.ErrIdentityNotFound
	}
	if ident, ok := c.cache.Get(id); ok {
		return clone(ident), nil
	}

	// The flight is shared, so it must not die with whichever caller started it.
	// Each caller still gives up on its own ctx below.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(flightCtx, c.timeout)
		defer cancel()
		ident, err := c.next.FindByIdentifier(lookupCtx, id)
		if err != nil {
			return domainauth.Identity{}, err
		}
		c.cache.Add(id, ident)
		return ident, nil
	})

	select {
	case <-ctx.Done():
		return domainauth.Identity{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domainauth.Identity{}, res.Err
		}
		ident, _ := res.Val.(domainauth.Identity)
		return clone(ident), nil
	}
}

// Evict drops id from the cache.
func (c *IdentityCache) Evict(id string) bool { return c.cache.Remove(id) }

// Purge drops every cached identity.
func (c *IdentityCache) Purge() { c.cache.Purge() }

// Len returns the number of cached identities.
func (c *IdentityCache) Len() int { return c.cache.Len() }

func clone(ident domainauth.Identity) domainauth.Identity {
	ident.Capabilities = slices.Clone(ident.Capabilities)
	return ident
}
