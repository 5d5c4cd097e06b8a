package httpx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCSRFCookieName  = "csrf_token"
	DefaultCSRFHeaderName  = "X-Csrf-Token"
	DefaultCSRFTokenLength = 32
	DefaultCSRFCookieTTL   = 12 * time.Hour
)

var errCSRFMismatch = errors.New("CSRF token validation failed")

// CSRFConfig configures the double-submit cookie stage. Zero values take the Default* constants;
// FormFieldName defaults to the cookie name.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	CookieTTL     time.Duration
	TokenLength   int
	// Exempt skips the stage entirely, cookie issuance included.
	Exempt func(r *http.Request) bool
}

func (c CSRFConfig) withDefaults() CSRFConfig {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	if c.FormFieldName == "" {
		c.FormFieldName = c.CookieName
	}
	if c.CookieTTL <= 0 {
		c.CookieTTL = DefaultCSRFCookieTTL
	}
	if c.TokenLength <= 0 {
		c.TokenLength = DefaultCSRFTokenLength
	}
	return c
}

type csrfGuard struct {
	cfg  CSRFConfig
	next http.Handler
}

// CSRFProtection guards cookie-authenticated browser traffic. A request without the cookie is
// issued one; any unsafe method must echo the cookie value in the header or a form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return &csrfGuard{cfg: cfg, next: next}
	}
}

func (g *csrfGuard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.cfg.Exempt != nil && g.cfg.Exempt(r) {
		g.next.ServeHTTP(w, r)
		return
	}

	expected := ""
	if c, err := r.Cookie(g.cfg.CookieName); err == nil {
		expected = c.Value
	} else if err := g.issue(w, r); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "csrf_unavailable", Err: err})
		return
	}

	if !isSafeMethod(r.Method) && !g.matches(r, expected) {
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Err: errCSRFMismatch})
		return
	}
	g.next.ServeHTTP(w, r)
}

func (g *csrfGuard) issue(w http.ResponseWriter, r *http.Request) error {
	raw := make([]byte, g.cfg.TokenLength)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate csrf token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   g.cfg.CookieName,
		Value:  base64.URLEncoding.EncodeToString(raw),
		Path:   "/",
		Domain: g.cfg.CookieDomain,
		// Scripts read the cookie to echo it back.
		HttpOnly: false,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(g.cfg.CookieTTL / time.Second),
	})
	return nil
}

// matches compares the submitted token with the cookie in constant time. The header wins over
// the form; the body is parsed only for form content types.
func (g *csrfGuard) matches(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	submitted := r.Header.Get(g.cfg.HeaderName)
	if submitted == "" && isFormContent(r.Header.Get("Content-Type")) {
		submitted = r.PostFormValue(g.cfg.FormFieldName)
	}
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1
}

// CredentialHeaderExempt exempts requests whose header carries a credential one of the
// authenticators accepts. Only pass authenticators for schemes browsers never attach on their
// own; Basic credentials are replayed by browsers and must stay subject to the check.
func CredentialHeaderExempt(header string, authenticators ...Authenticator) func(*http.Request) bool {
	if header == "" {
		header = DefaultCredentialHeader
	}
	return func(r *http.Request) bool {
		value := r.Header.Get(header)
		if value == "" {
			return false
		}
		for _, a := range authenticators {
			if a != nil && a.HasCredential(value) {
				return true
			}
		}
		return false
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func isFormContent(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}

// isHTTPS honors X-Forwarded-Proto lists such as "http, https" from chained proxies.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
