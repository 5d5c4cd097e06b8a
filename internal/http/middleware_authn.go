package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/service"
)

// DefaultCredentialHeader carries the credential unless configured otherwise.
const DefaultCredentialHeader = "Authorization"

const (
	stageToken    = "token"
	stagePassword = "password"
)

// Authenticator decides whether a credential header authenticates a request.
// Implemented by service.AuthnService and service.PasswordAuthnService.
type Authenticator interface {
	HasCredential(header string) bool
	Evaluate(ctx context.Context, header string, details domainauth.RequestDetails) service.Decision
}

// AuthenticationOptions configures an authentication stage.
type AuthenticationOptions struct {
	Authenticator Authenticator
	Policy        FilterChainPolicy
	Header        string
}

// TokenAuthentication returns the bearer token interceptor.
// It runs at most once per request, never writes a response and always forwards to next.
func TokenAuthentication(opts AuthenticationOptions) func(http.Handler) http.Handler {
	return authenticationStage(stageToken, opts)
}

// PasswordAuthentication returns the HTTP Basic stage. It has the same forwarding
// semantics as TokenAuthentication and only runs when no earlier stage authenticated the request.
func PasswordAuthentication(opts AuthenticationOptions) func(http.Handler) http.Handler {
	return authenticationStage(stagePassword, opts)
}

func authenticationStage(stage string, opts AuthenticationOptions) func(http.Handler) http.Handler {
	header := opts.Header
	if header == "" {
		header = DefaultCredentialHeader
	}
	return func(next http.Handler) http.Handler {
		if opts.Authenticator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if authnStageDone(ctx, stage) {
				next.ServeHTTP(w, r)
				return
			}
			ctx = markAuthnStage(ctx, stage)

			credential := r.Header.Get(header)
			if !opts.Authenticator.HasCredential(credential) || opts.Policy.IsPublic(r) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			decision := opts.Authenticator.Evaluate(ctx, credential, requestDetails(r))
			ctx = domainauth.WithSecurityContext(ctx, decision.Context)
			noteAuthenticated(ctx, domainauth.CurrentSecurityContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
