package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityResolver = (*StaticResolver)(nil)
	_ ports.TokenCodec       = (*StubCodec)(nil)
	_ ports.PasswordVerifier = PlainVerifier{}
)

// StaticResolver resolves identities from a map and counts lookups.
type StaticResolver struct {
	// FindFunc, when set, overrides the map lookup.
	FindFunc func(ctx context.Context, id string) (domainauth.Identity, error)

	mu         sync.Mutex
	identities map[string]domainauth.Identity
	calls      atomic.Int64
}

// NewStaticResolver creates a StaticResolver seeded with identities.
func NewStaticResolver(identities ...domainauth.Identity) *StaticResolver {
	r := &StaticResolver{identities: make(map[string]domainauth.Identity, len(identities))}
	for _, ident := range identities {
		r.identities[ident.ID] = ident
	}
	return r
}

func (r *StaticResolver) FindByIdentifier(ctx context.Context, id string) (domainauth.Identity, error) {
	r.calls.Add(1)
	if r.FindFunc != nil {
		return r.FindFunc(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrIdentityNotFound
	}
	ident.Capabilities = slices.Clone(ident.Capabilities)
	return ident, nil
}

// Put adds or replaces an identity.
func (r *StaticResolver) Put(ident domainauth.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[ident.ID] = ident
}

// Calls returns the number of lookups performed.
func (r *StaticResolver) Calls() int { return int(r.calls.Load()) }

// StubCodec treats a token of the form "<subject>" or "<subject>|invalid" as a decodable credential.
// Tokens equal to Malformed fail decoding.
type StubCodec struct {
	Malformed string
}

func (c StubCodec) ExtractSubject(token string) (string, error) {
	if token == "" || token == c.Malformed {
		return "", domainauth.ErrMalformedToken
	}
	sub, _ := cutInvalid(token)
	return sub, nil
}

func (c StubCodec) Validate(token string, identity domainauth.Identity) bool {
	sub, invalid := cutInvalid(token)
	return !invalid && sub == identity.ID
}

func cutInvalid(token string) (string, bool) {
	return strings.CutSuffix(token, "|invalid")
}

// PlainVerifier compares passwords with stored values verbatim.
type PlainVerifier struct{}

func (PlainVerifier) Verify(hash, password string) bool { return hash != "" && hash == password }
