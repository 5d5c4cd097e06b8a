package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/observability/metrics"
	"github.com/target/gatekeeper/internal/observability/statsd"
	"github.com/target/gatekeeper/internal/ports"
)

// DefaultScheme is the credential scheme expected in the authorization header.
const DefaultScheme = "Bearer"

// Outcome names the branch an authentication attempt ended in.
type Outcome string

const (
	OutcomeNoCredential         Outcome = "no_credential"
	OutcomeMalformed            Outcome = "malformed"
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
	OutcomeIdentityNotFound     Outcome = "identity_not_found"
	OutcomeLookupFailed         Outcome = "lookup_failed"
	OutcomeInvalidToken         Outcome = "invalid_token"
	OutcomeInvalidPassword      Outcome = "invalid_password"
	OutcomeAuthenticated        Outcome = "authenticated"
)

// Decision is the result of one authentication attempt.
// Context is empty for every outcome other than authenticated and already_authenticated.
type Decision struct {
	Context domainauth.SecurityContext
	Outcome Outcome
}

// AuthnServiceOptions groups dependencies for AuthnService.
type AuthnServiceOptions struct {
	Codec    ports.TokenCodec
	Resolver ports.IdentityResolver
	// Scheme is the case-sensitive header prefix; defaults to "Bearer".
	Scheme  string
	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

// AuthnService decides whether a bearer credential authenticates a request.
// It holds no per-request state and is safe for concurrent use.
type AuthnService struct {
	codec    ports.TokenCodec
	resolver ports.IdentityResolver
	prefix   string
	metrics  statsd.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthnService constructs an AuthnService.
func NewAuthnService(opts AuthnServiceOptions) (*AuthnService, error) {
	if opts.Codec == nil {
		return nil, errors.New("token codec is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	scheme := strings.TrimSpace(opts.Scheme)
	if scheme == "" {
		scheme = DefaultScheme
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthnService{
		codec:    opts.Codec,
		resolver: opts.Resolver,
		prefix:   scheme + " ",
		metrics:  opts.Metrics,
		logger:   logger.With("component", "authn"),
		now:      now,
	}, nil
}

// Scheme returns the configured credential scheme without the trailing space.
func (s *AuthnService) Scheme() string { return strings.TrimSuffix(s.prefix, " ") }

// HasCredential reports whether header carries this service's scheme prefix.
func (s *AuthnService) HasCredential(header string) bool {
	return strings.HasPrefix(header, s.prefix)
}

// Authenticate returns the security context established by header, or the empty context.
// Failures never surface as errors.
func (s *AuthnService) Authenticate(
	ctx context.Context,
	header string,
	details domainauth.RequestDetails,
) domainauth.SecurityContext {
	return s.Evaluate(ctx, header, details).Context
}

// Evaluate runs the decision procedure and reports which branch it took.
func (s *AuthnService) Evaluate(ctx context.Context, header string, details domainauth.RequestDetails) Decision {
	d := s.evaluate(ctx, header, details)
	s.record(ctx, d)
	return d
}

func (s *AuthnService) evaluate(ctx context.Context, header string, details domainauth.RequestDetails) Decision {
	token, ok := strings.CutPrefix(header, s.prefix)
	if !ok {
		return Decision{Outcome: OutcomeNoCredential}
	}

	subject, err := s.codec.ExtractSubject(token)
	if err != nil {
		return Decision{Outcome: OutcomeMalformed}
	}

	if existing, found := domainauth.SecurityContextFrom(ctx); found && existing.IsAuthenticated() {
		return Decision{Context: existing, Outcome: OutcomeAlreadyAuthenticated}
	}

	identity, outcome := lookupIdentity(ctx, s.resolver, s.metrics, s.logger, subject)
	if outcome != "" {
		return Decision{Outcome: outcome}
	}

	if !s.codec.Validate(token, identity) {
		return Decision{Outcome: OutcomeInvalidToken}
	}
	identity.PasswordHash = ""

	return Decision{
		Context: domainauth.SecurityContext{
			Identity:        &identity,
			Details:         details,
			Method:          domainauth.MethodBearer,
			AuthenticatedAt: s.now(),
		},
		Outcome: OutcomeAuthenticated,
	}
}

func (s *AuthnService) record(ctx context.Context, d Decision) {
	recordDecision(ctx, s.metrics, s.logger, d, domainauth.MethodBearer)
}

// lookupIdentity resolves subject and classifies failures. A non-empty outcome means the lookup failed.
func lookupIdentity(
	ctx context.Context,
	resolver ports.IdentityResolver,
	sink statsd.Sink,
	logger *slog.Logger,
	subject string,
) (domainauth.Identity, Outcome) {
	start := time.Now()
	identity, err := resolver.FindByIdentifier(ctx, subject)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.EmitLookup(sink, metrics.LookupMetric{Result: metrics.ResultFound, Duration: elapsed})
		return identity, ""
	case errors.Is(err, domainauth.ErrIdentityNotFound):
		metrics.EmitLookup(sink, metrics.LookupMetric{Result: metrics.ResultNotFound, Duration: elapsed})
		return domainauth.Identity{}, OutcomeIdentityNotFound
	default:
		metrics.EmitLookup(sink, metrics.LookupMetric{Result: metrics.ResultError, Duration: elapsed, Err: err})
		logger.WarnContext(ctx, "identity lookup failed", "error", err)
		return domainauth.Identity{}, OutcomeLookupFailed
	}
}

func recordDecision(
	ctx context.Context,
	sink statsd.Sink,
	logger *slog.Logger,
	d Decision,
	method domainauth.AuthMethod,
) {
	metrics.EmitDecision(sink, metrics.DecisionMetric{Outcome: string(d.Outcome), Method: string(method)})
	if d.Outcome == OutcomeNoCredential {
		return
	}
	attrs := []any{"outcome", d.Outcome, "method", method}
	if d.Context.IsAuthenticated() {
		attrs = append(attrs, "subject", d.Context.Subject())
	}
	logger.DebugContext(ctx, "authentication decision", attrs...)
}
