//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

const (
	maxIdentifierLen = 320
	maxCapabilities  = 64
)

var capabilityPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_:.\-]*$`)

// IdentityRecord is a row of the identities table.
type IdentityRecord struct {
	ID           string    `json:"id"           db:"identifier"`
	PasswordHash *string   `json:"-"            db:"password_hash"`
	Capabilities []string  `json:"capabilities" db:"capabilities"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"   db:"updated_at"`
}

// ToIdentity converts the record into the domain identity consumed by authentication.
func (r IdentityRecord) ToIdentity() domainauth.Identity {
	ident := domainauth.Identity{
		ID:           r.ID,
		Capabilities: slices.Clone(r.Capabilities),
	}
	if r.PasswordHash != nil {
		ident.PasswordHash = *r.PasswordHash
	}
	if ident.Capabilities == nil {
		ident.Capabilities = []string{}
	}
	return ident
}

// CreateIdentityRequest represents a request to register an identity.
type CreateIdentityRequest struct {
	ID           string   `json:"id"`
	PasswordHash string   `json:"-"`
	Capabilities []string `json:"capabilities"`
}

// Normalize trims whitespace and removes duplicate capabilities while keeping order.
func (r *CreateIdentityRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	seen := make(map[string]struct{}, len(r.Capabilities))
	out := make([]string, 0, len(r.Capabilities))
	for _, c := range r.Capabilities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	r.Capabilities = out
}

// Validate validates the CreateIdentityRequest fields.
func (r *CreateIdentityRequest) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if utf8.RuneCountInString(r.ID) > maxIdentifierLen {
		return errors.New("id must be at most 320 characters")
	}
	if len(r.Capabilities) > maxCapabilities {
		return errors.New("too many capabilities")
	}
	for _, c := range r.Capabilities {
		if !capabilityPattern.MatchString(c) {
			return errors.New("invalid capability: " + c)
		}
	}
	return nil
}
