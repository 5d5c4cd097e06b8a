package jwtcodec

// Package jwtcodec implements ports.TokenCodec for compact JWS tokens (RFC 7519).

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/ports"
)

// DefaultAlgorithms is used when Config.Algorithms is empty.
var DefaultAlgorithms = []string{"HS256"}

// Config controls token validation.
type Config struct {
	// Keyfunc resolves the verification key for a parsed token. Required.
	Keyfunc jwt.Keyfunc
	// Algorithms lists the accepted "alg" header values.
	Algorithms []string
	// Issuer, when set, must equal the "iss" claim.
	Issuer string
	// Audience, when set, must be present in the "aud" claim.
	Audience string
	// Leeway is the clock skew tolerated on exp/nbf/iat. Zero means now must be strictly before exp.
	Leeway time.Duration
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Codec decodes and validates bearer tokens. It is safe for concurrent use.
type Codec struct {
	keyfunc    jwt.Keyfunc
	verifier   *jwt.Parser
	unverified *jwt.Parser
}

var _ ports.TokenCodec = (*Codec)(nil)

// New constructs a Codec from cfg.
func New(cfg Config) (*Codec, error) {
	if cfg.Keyfunc == nil {
		return nil, errors.New("jwtcodec: keyfunc is required")
	}
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}
	for _, alg := range algs {
		if alg == "" || alg == jwt.SigningMethodNone.Alg() {
			return nil, fmt.Errorf("jwtcodec: algorithm %q is not allowed", alg)
		}
		if jwt.GetSigningMethod(alg) == nil {
			return nil, fmt.Errorf("jwtcodec: unknown algorithm %q", alg)
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Codec{
		keyfunc:    cfg.Keyfunc,
		verifier:   jwt.NewParser(opts...),
		unverified: jwt.NewParser(),
	}, nil
}

// ExtractSubject decodes the token without verifying its signature and returns the "sub" claim.
func (c *Codec) ExtractSubject(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty token", domainauth.ErrMalformedToken)
	}
	var claims jwt.RegisteredClaims
	if _, _, err := c.unverified.ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("%w: %w", domainauth.ErrMalformedToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", domainauth.ErrMalformedToken)
	}
	return claims.Subject, nil
}

// Validate reports whether token carries a valid signature, has not expired and names identity.
func (c *Codec) Validate(token string, identity domainauth.Identity) bool {
	if token == "" || identity.ID == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	parsed, err := c.verifier.ParseWithClaims(token, &claims, c.keyfunc)
	if err != nil || parsed == nil || !parsed.Valid {
		return false
	}
	// exp is enforced by the parser; iat must also be present.
	if claims.IssuedAt == nil {
		return false
	}
	return claims.Subject == identity.ID
}
