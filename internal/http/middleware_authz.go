package httpx

import (
	"errors"
	"net/http"
)

var errAuthenticationRequired = errors.New("authentication required")

// RequireAuthenticated rejects requests to protected routes that reach it with an empty security context.
func RequireAuthenticated(policy FilterChainPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.IsPublic(r) || SecurityContextFromRequest(r).IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "authentication_required",
				Err:     errAuthenticationRequired,
			})
		})
	}
}
