package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bmatcuk/doublestar/v4"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

// SessionMode controls whether the pipeline may persist authentication across requests.
type SessionMode string

// SessionStateless is the only supported mode: every request authenticates on its own.
const SessionStateless SessionMode = "stateless"

// FilterChainPolicy declares how requests flow through the authentication pipeline.
type FilterChainPolicy struct {
	SessionMode SessionMode
	// Rules are evaluated in order; the first match wins.
	Rules domainauth.RouteRules
	// DefaultAccess applies to requests no rule matches. Empty means protected.
	DefaultAccess domainauth.Access
}

// DefaultPolicy exposes the health and readiness endpoints and protects everything else.
func DefaultPolicy() FilterChainPolicy {
	return FilterChainPolicy{
		SessionMode: SessionStateless,
		Rules: domainauth.RouteRules{
			{Pattern: "/healthz", Access: domainauth.AccessPublic},
			{Pattern: "/readyz", Access: domainauth.AccessPublic},
		},
		DefaultAccess: domainauth.AccessProtected,
	}
}

// Validate checks the policy for unsupported modes and malformed patterns.
func (p FilterChainPolicy) Validate() error {
	var errs []error
	if p.SessionMode != "" && p.SessionMode != SessionStateless {
		errs = append(errs, fmt.Errorf("unsupported session mode %q", p.SessionMode))
	}
	if p.DefaultAccess != "" && !p.DefaultAccess.Valid() {
		errs = append(errs, fmt.Errorf("unknown default access %q", p.DefaultAccess))
	}
	for _, rule := range p.Rules {
		if !rule.Access.Valid() {
			errs = append(errs, fmt.Errorf("rule %s: unknown access", rule))
		}
		if !doublestar.ValidatePattern(rule.Pattern) {
			errs = append(errs, fmt.Errorf("rule %s: invalid pattern", rule))
		}
	}
	return errors.Join(errs...)
}

// Classify returns the access class for r.
func (p FilterChainPolicy) Classify(r *http.Request) domainauth.Access {
	for _, rule := range p.Rules {
		if rule.Method != "" && rule.Method != r.Method {
			continue
		}
		if ok, err := doublestar.Match(rule.Pattern, r.URL.Path); err == nil && ok {
			return rule.Access
		}
	}
	if p.DefaultAccess == "" {
		return domainauth.AccessProtected
	}
	return p.DefaultAccess
}

// IsPublic reports whether r targets a public route.
func (p FilterChainPolicy) IsPublic(r *http.Request) bool {
	return p.Classify(r) == domainauth.AccessPublic
}

// FilterChainOptions groups the stages assembled by BuildFilterChain.
type FilterChainOptions struct {
	Policy FilterChainPolicy
	// Token is the bearer token stage. Required.
	Token Authenticator
	// Password is the optional HTTP Basic stage, registered after Token.
	Password Authenticator
	// Header names the credential header; defaults to Authorization.
	Header string
	// CORS and CSRF are optional; nil disables the stage.
	CORS   *CORSConfig
	CSRF   *CSRFConfig
	Logger *slog.Logger
}

// BuildFilterChain wraps router with the authentication pipeline.
// Stage order, outermost first: Recover, RequestID, Logging, CORS, CSRF, token,
// password, authorization.
func BuildFilterChain(router http.Handler, opts FilterChainOptions) (http.Handler, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	if opts.Token == nil {
		return nil, errors.New("token authenticator is required")
	}
	policy := opts.Policy
	if policy.SessionMode == "" {
		policy.SessionMode = SessionStateless
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter chain policy: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stages := []func(http.Handler) http.Handler{
		Recover(logger),
		RequestID(),
		Logging(logger),
	}
	if opts.CORS != nil {
		stages = append(stages, CORS(*opts.CORS))
	}
	if opts.CSRF != nil {
		csrf := *opts.CSRF
		if csrf.Exempt == nil {
			csrf.Exempt = CredentialHeaderExempt(opts.Header, opts.Token)
		}
		stages = append(stages, CSRFProtection(csrf))
	}
	stages = append(stages, TokenAuthentication(AuthenticationOptions{
		Authenticator: opts.Token,
		Policy:        policy,
		Header:        opts.Header,
	}))
	if opts.Password != nil {
		stages = append(stages, PasswordAuthentication(AuthenticationOptions{
			Authenticator: opts.Password,
			Policy:        policy,
			Header:        opts.Header,
		}))
	}
	stages = append(stages, RequireAuthenticated(policy))

	return Chain(router, stages...), nil
}

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
