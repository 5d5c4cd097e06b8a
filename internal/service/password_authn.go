package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/observability/statsd"
	"github.com/target/gatekeeper/internal/ports"
)

const basicPrefix = "Basic "

// PasswordAuthnServiceOptions groups dependencies for PasswordAuthnService.
type PasswordAuthnServiceOptions struct {
	// Resolver must return identities including their password hash.
	Resolver ports.IdentityResolver
	Verifier ports.PasswordVerifier
	Metrics  statsd.Sink
	Logger   *slog.Logger
	Now      func() time.Time
}

// PasswordAuthnService authenticates HTTP Basic credentials against stored password hashes.
type PasswordAuthnService struct {
	resolver ports.IdentityResolver
	verifier ports.PasswordVerifier
	metrics  statsd.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewPasswordAuthnService constructs a PasswordAuthnService.
func NewPasswordAuthnService(opts PasswordAuthnServiceOptions) (*PasswordAuthnService, error) {
	if opts.Resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("password verifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &PasswordAuthnService{
		resolver: opts.Resolver,
		verifier: opts.Verifier,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "password_authn"),
		now:      now,
	}, nil
}

// HasCredential reports whether header carries a Basic credential.
func (s *PasswordAuthnService) HasCredential(header string) bool {
	return strings.HasPrefix(header, basicPrefix)
}

// Evaluate authenticates a "Basic base64(id:password)" header.
// Like the token path it never fails loudly: every failure yields the empty context.
func (s *PasswordAuthnService) Evaluate(
	ctx context.Context,
	header string,
	details domainauth.RequestDetails,
) Decision {
	d := s.evaluate(ctx, header, details)
	recordDecision(ctx, s.metrics, s.logger, d, domainauth.MethodPassword)
	return d
}

func (s *PasswordAuthnService) evaluate(
	ctx context.Context,
	header string,
	details domainauth.RequestDetails,
) Decision {
	encoded, ok := strings.CutPrefix(header, basicPrefix)
	if !ok {
		return Decision{Outcome: OutcomeNoCredential}
	}
	id, password, ok := decodeBasic(encoded)
	if !ok {
		return Decision{Outcome: OutcomeMalformed}
	}

	if existing, found := domainauth.SecurityContextFrom(ctx); found && existing.IsAuthenticated() {
		return Decision{Context: existing, Outcome: OutcomeAlreadyAuthenticated}
	}

	identity, outcome := lookupIdentity(ctx, s.resolver, s.metrics, s.logger, id)
	if outcome != "" {
		return Decision{Outcome: outcome}
	}

	if !s.verifier.Verify(identity.PasswordHash, password) {
		return Decision{Outcome: OutcomeInvalidPassword}
	}
	identity.PasswordHash = ""

	return Decision{
		Context: domainauth.SecurityContext{
			Identity:        &identity,
			Details:         details,
			Method:          domainauth.MethodPassword,
			AuthenticatedAt: s.now(),
		},
		Outcome: OutcomeAuthenticated,
	}
}

// decodeBasic splits a base64 "id:password" pair. Empty ids are rejected.
func decodeBasic(encoded string) (string, string, bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	id, password, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return "", "", false
	}
	return id, password, true
}
