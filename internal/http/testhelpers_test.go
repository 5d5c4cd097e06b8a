package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	mockauth "github.com/target/gatekeeper/internal/mocks/auth"
	"github.com/target/gatekeeper/internal/service"
	"github.com/target/gatekeeper/internal/testutil"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var userIdentity = domainauth.Identity{ID: "user@example.com", Capabilities: []string{"ROLE_USER"}}

// countingAuthenticator wraps an Authenticator and counts Evaluate calls.
type countingAuthenticator struct {
	Authenticator
	calls atomic.Int64
}

func (c *countingAuthenticator) Evaluate(
	ctx context.Context,
	header string,
	details domainauth.RequestDetails,
) service.Decision {
	c.calls.Add(1)
	return c.Authenticator.Evaluate(ctx, header, details)
}

func (c *countingAuthenticator) Calls() int { return int(c.calls.Load()) }

// newStubAuthn returns a token engine over the stub codec and a resolver seeded with identities.
func newStubAuthn(t *testing.T, identities ...domainauth.Identity) (*countingAuthenticator, *mockauth.StaticResolver) {
	t.Helper()
	resolver := mockauth.NewStaticResolver(identities...)
	svc, err := service.NewAuthnService(service.AuthnServiceOptions{
		Codec:    mockauth.StubCodec{Malformed: "garbage"},
		Resolver: resolver,
		Now:      testutil.FixedTimeFunc(testNow),
	})
	require.NoError(t, err)
	return &countingAuthenticator{Authenticator: svc}, resolver
}

// captureHandler records the security context and invocation count of the terminal handler.
type captureHandler struct {
	calls atomic.Int64
	sc    domainauth.SecurityContext
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	h.sc = SecurityContextFromRequest(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *captureHandler) Calls() int { return int(h.calls.Load()) }

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newRequest(method, target, authorization string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}
