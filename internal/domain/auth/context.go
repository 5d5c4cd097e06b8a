package auth

import "context"

// securityContextKey is an unexported context key type to avoid collisions across packages.
type securityContextKey struct{}

// WithSecurityContext returns a child context carrying sc.
// An empty sc, or a ctx that already carries an authenticated context, returns ctx unchanged:
// a request is authenticated at most once.
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	if !sc.IsAuthenticated() {
		return ctx
	}
	if existing, ok := SecurityContextFrom(ctx); ok && existing.IsAuthenticated() {
		return ctx
	}
	return context.WithValue(ctx, securityContextKey{}, sc)
}

// SecurityContextFrom returns the security context installed on ctx and whether one is present.
func SecurityContextFrom(ctx context.Context) (SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey{}).(SecurityContext)
	if !ok {
		return SecurityContext{}, false
	}
	return sc, true
}

// CurrentSecurityContext returns the installed context or the empty context.
func CurrentSecurityContext(ctx context.Context) SecurityContext {
	sc, _ := SecurityContextFrom(ctx)
	return sc
}
