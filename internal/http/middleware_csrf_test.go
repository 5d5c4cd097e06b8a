package httpx

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(cfg CSRFConfig) (http.Handler, *captureHandler) {
	next := &captureHandler{}
	return CSRFProtection(cfg)(next), next
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			return c
		}
	}
	return nil
}

func TestCSRFProtection_SafeMethodsIssueCookie(t *testing.T) {
	h, next := csrfHandler(CSRFConfig{})

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		rec := serve(h, httptest.NewRequest(method, "/test", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, method)
		c := csrfCookie(t, rec)
		require.NotNil(t, c, method)
		assert.NotEmpty(t, c.Value)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	}
	assert.Equal(t, 4, next.Calls())
}

func TestCSRFProtection_PostValidation(t *testing.T) {
	h, _ := csrfHandler(CSRFConfig{})
	const token = "known-token-value"

	withCookie := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		return req
	}
	form := func(v string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(url.Values{"csrf_token": {v}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}
	header := func(v string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set(DefaultCSRFHeaderName, v)
		return req
	}

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{name: "no cookie no token", req: httptest.NewRequest(http.MethodPost, "/test", nil), want: http.StatusForbidden},
		{name: "cookie without token", req: withCookie(httptest.NewRequest(http.MethodPost, "/test", nil)), want: http.StatusForbidden},
		{name: "header token", req: withCookie(header(token)), want: http.StatusNoContent},
		{name: "mismatched header", req: withCookie(header("other")), want: http.StatusForbidden},
		{name: "form token", req: withCookie(form(token)), want: http.StatusNoContent},
		{name: "header without cookie", req: header(token), want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), `"error":"csrf_failed"`)
			}
		})
	}
}

func TestCSRFProtection_FormIgnoredForJSON(t *testing.T) {
	h, _ := csrfHandler(CSRFConfig{})
	req := httptest.NewRequest(http.MethodPost, "/test?csrf_token=tok", strings.NewReader(`{"csrf_token":"tok"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})

	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)
}

func TestCSRFProtection_Exempt(t *testing.T) {
	authn, _ := newStubAuthn(t)
	h, next := csrfHandler(CSRFConfig{Exempt: CredentialHeaderExempt("", authn)})

	rec := serve(h, newRequest(http.MethodPost, "/test", "Bearer anything"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, csrfCookie(t, rec), "exempt requests get no cookie")

	rec = serve(h, newRequest(http.MethodPost, "/test", "Basic abc123"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, next.Calls())
}

func TestCSRFProtection_CookieSecureBehindTLS(t *testing.T) {
	h, _ := csrfHandler(CSRFConfig{CookieDomain: "example.com"})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.TLS = &tls.ConnectionState{}
	c := csrfCookie(t, serve(h, req))
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.Equal(t, "example.com", c.Domain)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "http, HTTPS")
	c = csrfCookie(t, serve(h, req))
	require.NotNil(t, c)
	assert.True(t, c.Secure)

	c = csrfCookie(t, serve(h, httptest.NewRequest(http.MethodGet, "/test", nil)))
	require.NotNil(t, c)
	assert.False(t, c.Secure)
}

func TestCSRFProtection_CookieNotReissued(t *testing.T) {
	h, _ := csrfHandler(CSRFConfig{})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})

	assert.Nil(t, csrfCookie(t, serve(h, req)))
}
