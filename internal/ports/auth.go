package ports

// Package ports defines interfaces (hexagonal ports) for authentication behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

// TokenCodec decodes and validates signed bearer tokens.
type TokenCodec interface {
	// ExtractSubject decodes the token without verifying it and returns the embedded subject.
	// It fails with domainauth.ErrMalformedToken when the token cannot be decoded.
	ExtractSubject(token string) (string, error)

	// Validate verifies signature, expiry and subject against identity.
	// A false result is a normal outcome, never an exceptional one.
	Validate(token string, identity domainauth.Identity) bool
}

// IdentityResolver looks identities up in an external store.
// Not-found is reported as domainauth.ErrIdentityNotFound.
type IdentityResolver interface {
	FindByIdentifier(ctx context.Context, id string) (domainauth.Identity, error)
}

// PasswordVerifier compares a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(hash, password string) bool
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
