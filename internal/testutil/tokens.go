package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestSecret is a 32-byte HMAC secret shared by tests.
var TestSecret = []byte("0123456789abcdef0123456789abcdef")

// TokenSpec describes a token minted for tests.
type TokenSpec struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
	Audience  string
	// OmitIssuedAt/OmitExpiry drop the corresponding claims.
	OmitIssuedAt bool
	OmitExpiry   bool
}

// Claims converts the spec to registered claims.
func (s TokenSpec) Claims() jwt.RegisteredClaims {
	claims := jwt.RegisteredClaims{
		Subject: s.Subject,
		Issuer:  s.Issuer,
	}
	if s.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.Audience}
	}
	iat := s.IssuedAt
	if iat.IsZero() {
		iat = time.Now().Add(-time.Minute)
	}
	exp := s.ExpiresAt
	if exp.IsZero() {
		exp = iat.Add(time.Hour)
	}
	if !s.OmitIssuedAt {
		claims.IssuedAt = jwt.NewNumericDate(iat)
	}
	if !s.OmitExpiry {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	return claims
}

// MintHS256 signs spec with secret using HS256.
func MintHS256(t TestingTB, secret []byte, spec TokenSpec) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, spec.Claims()).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// MintWithMethod signs spec with an arbitrary method and key.
func MintWithMethod(t TestingTB, method jwt.SigningMethod, key any, spec TokenSpec, header map[string]any) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, spec.Claims())
	for k, v := range header {
		tok.Header[k] = v
	}
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
