package config

import (
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

// SessionMode mirrors the filter chain session policy; only stateless is supported.
type SessionMode string

// SessionModeStateless authenticates every request independently.
const SessionModeStateless SessionMode = "stateless"

// UnmarshalText implements encoding.TextUnmarshaler for SessionMode.
func (m *SessionMode) UnmarshalText(text []byte) error {
	v := SessionMode(strings.ToLower(strings.TrimSpace(string(text))))
	if v != SessionModeStateless {
		return fmt.Errorf("invalid SessionMode: %q (valid options: stateless)", v)
	}
	*m = v
	return nil
}

// RoutesConfig declares route classification for the filter chain.
type RoutesConfig struct {
	SessionMode SessionMode `env:"SESSION_MODE" envDefault:"stateless"`
	// Rules uses "[METHOD ]PATTERN=public|protected" entries separated by ';'.
	Rules domainauth.RouteRules `env:"ROUTE_RULES" envDefault:"/healthz=public;/readyz=public"`
	// DefaultAccess applies to requests no rule matches.
	DefaultAccess domainauth.Access `env:"ROUTE_DEFAULT_ACCESS" envDefault:"protected"`
}

// Sanitize normalizes the default access class.
func (r *RoutesConfig) Sanitize() {
	r.DefaultAccess = domainauth.Access(strings.ToLower(strings.TrimSpace(string(r.DefaultAccess))))
	if r.DefaultAccess == "" {
		r.DefaultAccess = domainauth.AccessProtected
	}
	if r.SessionMode == "" {
		r.SessionMode = SessionModeStateless
	}
}

// Validate checks the default access class.
func (r *RoutesConfig) Validate() error {
	if !r.DefaultAccess.Valid() {
		return errors.New("ROUTE_DEFAULT_ACCESS must be public or protected")
	}
	return nil
}
