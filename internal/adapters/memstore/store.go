package memstore

// Package memstore provides an immutable in-memory identity roster.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/ports"
)

// Store resolves identities from a fixed roster. It is safe for concurrent use
// because the roster is never modified after construction.
type Store struct {
	byID map[string]domainauth.Identity
}

var _ ports.IdentityResolver = (*Store)(nil)

// New builds a Store from identities. Identifiers must be non-empty and unique.
func New(identities ...domainauth.Identity) (*Store, error) {
	byID := make(map[string]domainauth.Identity, len(identities))
	for i, ident := range identities {
		id := strings.TrimSpace(ident.ID)
		if id == "" {
			return nil, fmt.Errorf("identity %d: id is required", i)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("identity %q: duplicate id", id)
		}
		byID[id] = copyIdentity(domainauth.Identity{
			ID:           id,
			PasswordHash: ident.PasswordHash,
			Capabilities: ident.Capabilities,
		})
	}
	return &Store{byID: byID}, nil
}

// LoadFile reads a JSON array of identities from path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open identity seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	store, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return store, nil
}

// Load decodes a JSON array of identities from r.
func Load(r io.Reader) (*Store, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var identities []domainauth.Identity
	if err := dec.Decode(&identities); err != nil {
		if errors.Is(err, io.EOF) {
			return New()
		}
		return nil, fmt.Errorf("decode identities: %w", err)
	}
	return New(identities...)
}

// FindByIdentifier returns a copy of the identity registered under id.
func (s *Store) FindByIdentifier(_ context.Context, id string) (domainauth.Identity, error) {
	ident, ok := s.byID[id]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrIdentityNotFound
	}
	return copyIdentity(ident), nil
}

// Len returns the roster size.
func (s *Store) Len() int { return len(s.byID) }

// IDs returns the registered identifiers in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func copyIdentity(ident domainauth.Identity) domainauth.Identity {
	ident.Capabilities = slices.Clone(ident.Capabilities)
	return ident
}
