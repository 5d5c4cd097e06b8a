package httpx

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

func TestGreetingsHandler(t *testing.T) {
	rec := serve(greetingsHandler(greetingHello), newRequest(http.MethodGet, "/api/v1/greetings", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello from our API", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestMeHandler(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		rec := serve(http.HandlerFunc(meHandler), newRequest(http.MethodGet, "/api/v1/me", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated without capabilities", func(t *testing.T) {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		req := newRequest(http.MethodGet, "/api/v1/me", "")
		req = req.WithContext(domainauth.WithSecurityContext(req.Context(), domainauth.SecurityContext{
			Identity:        &domainauth.Identity{ID: "svc", PasswordHash: "should-not-leak"},
			Method:          domainauth.MethodPassword,
			AuthenticatedAt: at,
			Details:         domainauth.RequestDetails{RequestID: "r-1"},
		}))
		rec := serve(http.HandlerFunc(meHandler), req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "should-not-leak")

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "svc", body["id"])
		assert.Equal(t, []any{}, body["capabilities"])
		assert.Equal(t, "password", body["method"])
		assert.Equal(t, "2024-01-02T03:04:05Z", body["authenticated_at"])
		assert.Equal(t, "r-1", body["request_id"])
	})
}

func TestRouter_NotFound(t *testing.T) {
	rec := serve(NewRouter(RouterOptions{}), newRequest(http.MethodGet, "/nope", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Not Found"}`, rec.Body.String())
}

func TestRequireAuthenticated(t *testing.T) {
	next := &captureHandler{}
	h := RequireAuthenticated(DefaultPolicy())(next)

	rec := serve(h, newRequest(http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, newRequest(http.MethodGet, "/api/v1/greetings", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, 1, next.Calls())
}
