package jwtcodec

import (
	"context"
	"errors"
	"fmt"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// MinHMACSecretLength is the minimum shared secret size accepted for HS* algorithms.
const MinHMACSecretLength = 32

// HMACKeyfunc returns a keyfunc that verifies HMAC-signed tokens with secret.
// The secret is copied; later changes to the caller's slice have no effect.
func HMACKeyfunc(secret []byte) (jwt.Keyfunc, error) {
	if len(secret) < MinHMACSecretLength {
		return nil, fmt.Errorf("hmac secret must be at least %d bytes", MinHMACSecretLength)
	}
	key := append([]byte(nil), secret...)
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return key, nil
	}, nil
}

// RSAPublicKeyfunc returns a keyfunc that verifies RSA-signed tokens with a PEM encoded public key.
func RSAPublicKeyfunc(pemBytes []byte) (jwt.Keyfunc, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return pub, nil
	}, nil
}

// JWKSKeyfunc returns a keyfunc backed by an auto-refreshing JWKS endpoint.
// Refresh goroutines stop when ctx is canceled.
func JWKSKeyfunc(ctx context.Context, jwksURL string) (jwt.Keyfunc, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return kf.Keyfunc, nil
}

// OIDCKeyfunc performs OIDC discovery against issuer and returns a JWKS keyfunc for the advertised
// jwks_uri together with the issuer reported by the discovery document.
func OIDCKeyfunc(ctx context.Context, issuer string) (jwt.Keyfunc, string, error) {
	if issuer == "" {
		return nil, "", errors.New("oidc issuer is required")
	}
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, "", fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		Issuer  string `json:"issuer"`
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, "", fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, "", errors.New("discovery incomplete: missing jwks_uri")
	}
	kf, err := JWKSKeyfunc(ctx, meta.JwksURI)
	if err != nil {
		return nil, "", err
	}
	return kf, meta.Issuer, nil
}
