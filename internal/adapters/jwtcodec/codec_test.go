package jwtcodec

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/testutil"
)

var fixedNow = time.Unix(1_700_000_000, 0).UTC()

func newHMACCodec(t *testing.T, mutate func(*Config)) *Codec {
	t.Helper()
	kf, err := HMACKeyfunc(testutil.TestSecret)
	require.NoError(t, err)
	cfg := Config{Keyfunc: kf, Now: testutil.FixedTimeFunc(fixedNow)}
	if mutate != nil {
		mutate(&cfg)
	}
	codec, err := New(cfg)
	require.NoError(t, err)
	return codec
}

func validSpec(sub string) testutil.TokenSpec {
	return testutil.TokenSpec{
		Subject:   sub,
		IssuedAt:  fixedNow.Add(-time.Minute),
		ExpiresAt: fixedNow.Add(time.Hour),
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	kf, err := HMACKeyfunc(testutil.TestSecret)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing keyfunc", cfg: Config{}},
		{name: "none algorithm", cfg: Config{Keyfunc: kf, Algorithms: []string{"none"}}},
		{name: "unknown algorithm", cfg: Config{Keyfunc: kf, Algorithms: []string{"XX999"}}},
		{name: "empty algorithm", cfg: Config{Keyfunc: kf, Algorithms: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestHMACKeyfunc_ShortSecret(t *testing.T) {
	_, err := HMACKeyfunc([]byte("too-short"))
	assert.Error(t, err)
}

func TestExtractSubject(t *testing.T) {
	codec := newHMACCodec(t, nil)

	t.Run("valid token", func(t *testing.T) {
		tok := testutil.MintHS256(t, testutil.TestSecret, validSpec("user@example.com"))
		sub, err := codec.ExtractSubject(tok)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", sub)
	})

	t.Run("does not verify signature or expiry", func(t *testing.T) {
		spec := validSpec("user@example.com")
		spec.ExpiresAt = fixedNow.Add(-time.Hour)
		tok := testutil.MintHS256(t, []byte("another-secret-another-secret-xx"), spec)
		sub, err := codec.ExtractSubject(tok)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", sub)
	})

	malformed := map[string]string{
		"empty":        "",
		"garbage":      "abc123",
		"two segments": "abc.def",
		"bad base64":   "a.b!.c",
	}
	for name, tok := range malformed {
		t.Run("malformed "+name, func(t *testing.T) {
			_, err := codec.ExtractSubject(tok)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainauth.ErrMalformedToken))
		})
	}

	t.Run("missing sub", func(t *testing.T) {
		tok := testutil.MintHS256(t, testutil.TestSecret, validSpec(""))
		_, err := codec.ExtractSubject(tok)
		assert.ErrorIs(t, err, domainauth.ErrMalformedToken)
	})
}

func TestValidate(t *testing.T) {
	codec := newHMACCodec(t, nil)
	alice := domainauth.Identity{ID: "alice", Capabilities: []string{"ROLE_USER"}}

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		identity domainauth.Identity
		want     bool
	}{
		{
			name: "valid",
			token: func(t *testing.T) string {
				return testutil.MintHS256(t, testutil.TestSecret, validSpec("alice"))
			},
			identity: alice,
			want:     true,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return testutil.MintHS256(t, []byte("ffffffffffffffffffffffffffffffff"), validSpec("alice"))
			},
			identity: alice,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				spec := validSpec("alice")
				spec.IssuedAt = fixedNow.Add(-2 * time.Hour)
				spec.ExpiresAt = fixedNow.Add(-time.Second)
				return testutil.MintHS256(t, testutil.TestSecret, spec)
			},
			identity: alice,
		},
		{
			name: "expires exactly now",
			token: func(t *testing.T) string {
				spec := validSpec("alice")
				spec.ExpiresAt = fixedNow
				return testutil.MintHS256(t, testutil.TestSecret, spec)
			},
			identity: alice,
		},
		{
			name: "missing exp",
			token: func(t *testing.T) string {
				spec := validSpec("alice")
				spec.OmitExpiry = true
				return testutil.MintHS256(t, testutil.TestSecret, spec)
			},
			identity: alice,
		},
		{
			name: "missing iat",
			token: func(t *testing.T) string {
				spec := validSpec("alice")
				spec.OmitIssuedAt = true
				return testutil.MintHS256(t, testutil.TestSecret, spec)
			},
			identity: alice,
		},
		{
			name: "issued in the future",
			token: func(t *testing.T) string {
				spec := validSpec("alice")
				spec.IssuedAt = fixedNow.Add(time.Minute)
				return testutil.MintHS256(t, testutil.TestSecret, spec)
			},
			identity: alice,
		},
		{
			name: "subject mismatch",
			token: func(t *testing.T) string {
				return testutil.MintHS256(t, testutil.TestSecret, validSpec("bob"))
			},
			identity: alice,
		},
		{
			name: "empty identity",
			token: func(t *testing.T) string {
				return testutil.MintHS256(t, testutil.TestSecret, validSpec("alice"))
			},
			identity: domainauth.Identity{},
		},
		{
			name: "unsigned token",
			token: func(t *testing.T) string {
				return testutil.MintWithMethod(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
					validSpec("alice"), nil)
			},
			identity: alice,
		},
		{
			name: "algorithm not allowed",
			token: func(t *testing.T) string {
				return testutil.MintWithMethod(t, jwt.SigningMethodHS512, testutil.TestSecret, validSpec("alice"), nil)
			},
			identity: alice,
		},
		{
			name:     "garbage",
			token:    func(*testing.T) string { return "abc123" },
			identity: alice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.Validate(tt.token(t), tt.identity))
		})
	}
}

func TestValidate_Leeway(t *testing.T) {
	codec := newHMACCodec(t, func(c *Config) { c.Leeway = 30 * time.Second })

	spec := validSpec("alice")
	spec.ExpiresAt = fixedNow.Add(-10 * time.Second)
	tok := testutil.MintHS256(t, testutil.TestSecret, spec)

	assert.True(t, codec.Validate(tok, domainauth.Identity{ID: "alice"}))
}

func TestValidate_IssuerAndAudience(t *testing.T) {
	codec := newHMACCodec(t, func(c *Config) {
		c.Issuer = "https://issuer.example.com"
		c.Audience = "gatekeeper"
	})
	alice := domainauth.Identity{ID: "alice"}

	spec := validSpec("alice")
	spec.Issuer = "https://issuer.example.com"
	spec.Audience = "gatekeeper"
	assert.True(t, codec.Validate(testutil.MintHS256(t, testutil.TestSecret, spec), alice))

	spec.Issuer = "https://evil.example.com"
	assert.False(t, codec.Validate(testutil.MintHS256(t, testutil.TestSecret, spec), alice))

	spec.Issuer = "https://issuer.example.com"
	spec.Audience = "other"
	assert.False(t, codec.Validate(testutil.MintHS256(t, testutil.TestSecret, spec), alice))
}

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestRSAPublicKeyfunc(t *testing.T) {
	key := generateRSAKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	kf, err := RSAPublicKeyfunc(pemBytes)
	require.NoError(t, err)
	codec, err := New(Config{Keyfunc: kf, Algorithms: []string{"RS256"}, Now: testutil.FixedTimeFunc(fixedNow)})
	require.NoError(t, err)

	tok := testutil.MintWithMethod(t, jwt.SigningMethodRS256, key, validSpec("alice"), nil)
	assert.True(t, codec.Validate(tok, domainauth.Identity{ID: "alice"}))

	other := generateRSAKey(t)
	forged := testutil.MintWithMethod(t, jwt.SigningMethodRS256, other, validSpec("alice"), nil)
	assert.False(t, codec.Validate(forged, domainauth.Identity{ID: "alice"}))

	_, err = RSAPublicKeyfunc([]byte("not a pem"))
	assert.Error(t, err)
}

func TestJWKSKeyfunc(t *testing.T) {
	key := generateRSAKey(t)
	jwks := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	kf, err := JWKSKeyfunc(ctx, srv.URL)
	require.NoError(t, err)
	codec, err := New(Config{Keyfunc: kf, Algorithms: []string{"RS256"}, Now: testutil.FixedTimeFunc(fixedNow)})
	require.NoError(t, err)

	tok := testutil.MintWithMethod(t, jwt.SigningMethodRS256, key, validSpec("alice"),
		map[string]any{"kid": "test-key"})
	assert.True(t, codec.Validate(tok, domainauth.Identity{ID: "alice"}))

	unknownKid := testutil.MintWithMethod(t, jwt.SigningMethodRS256, key, validSpec("alice"),
		map[string]any{"kid": "missing"})
	assert.False(t, codec.Validate(unknownKid, domainauth.Identity{ID: "alice"}))
}

func TestJWKSKeyfunc_RequiresURL(t *testing.T) {
	_, err := JWKSKeyfunc(context.Background(), "")
	assert.Error(t, err)
}
