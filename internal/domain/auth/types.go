package auth

// Package auth contains domain-level types for request authentication.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrMalformedToken is returned when a credential cannot be decoded into a token.
	ErrMalformedToken = errors.New("malformed token")
	// ErrIdentityNotFound is returned by identity stores when no identity matches an identifier.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Identity is the principal record owned by the identity store.
// The core only reads it; PasswordHash is never consulted by token authentication.
type Identity struct {
	ID           string   `json:"id"`
	PasswordHash string   `json:"password_hash,omitempty"`
	Capabilities []string `json:"capabilities"`
}

// AuthMethod names the pipeline stage that populated a SecurityContext.
type AuthMethod string

const (
	MethodBearer   AuthMethod = "bearer"
	MethodPassword AuthMethod = "password"
)

// RequestDetails carries request metadata attached to an authenticated context.
type RequestDetails struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// SecurityContext is the per-request record of the authenticated identity, if any.
// The zero value is the empty (unauthenticated) context.
type SecurityContext struct {
	Identity        *Identity
	Details         RequestDetails
	Method          AuthMethod
	AuthenticatedAt time.Time
}

// Empty returns an unauthenticated context.
func Empty() SecurityContext { return SecurityContext{} }

// IsAuthenticated reports whether an identity has been installed.
func (c SecurityContext) IsAuthenticated() bool { return c.Identity != nil }

// Subject returns the identifier of the authenticated identity or "".
func (c SecurityContext) Subject() string {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.ID
}

// Capabilities returns a copy of the granted capabilities.
func (c SecurityContext) Capabilities() []string {
	if c.Identity == nil {
		return nil
	}
	return slices.Clone(c.Identity.Capabilities)
}

// HasCapability reports whether the authenticated identity was granted capability.
func (c SecurityContext) HasCapability(capability string) bool {
	if c.Identity == nil {
		return false
	}
	return slices.Contains(c.Identity.Capabilities, capability)
}
