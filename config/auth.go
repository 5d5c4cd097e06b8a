package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// KeySource selects where token verification keys come from.
type KeySource string

const (
	// KeySourceHMAC verifies HS* tokens with a shared secret.
	KeySourceHMAC KeySource = "hmac"
	// KeySourceRSAPEM verifies RS* tokens with a PEM encoded public key file.
	KeySourceRSAPEM KeySource = "rsa-pem"
	// KeySourceJWKS verifies tokens against a remote JSON Web Key Set.
	KeySourceJWKS KeySource = "jwks"
	// KeySourceOIDC discovers the JWKS endpoint from an OpenID Connect issuer.
	KeySourceOIDC KeySource = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for KeySource.
func (k *KeySource) UnmarshalText(text []byte) error {
	v := KeySource(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case KeySourceHMAC, KeySourceRSAPEM, KeySourceJWKS, KeySourceOIDC:
		*k = v
		return nil
	default:
		return fmt.Errorf("invalid KeySource: %q (valid options: hmac, rsa-pem, jwks, oidc)", v)
	}
}

// TokenConfig controls bearer token decoding and validation.
type TokenConfig struct {
	Header        string        `env:"HEADER"          envDefault:"Authorization"`
	Scheme        string        `env:"SCHEME"          envDefault:"Bearer"`
	KeySource     KeySource     `env:"KEY_SOURCE"      envDefault:"hmac"`
	Secret        string        `env:"SECRET"`
	PublicKeyFile string        `env:"PUBLIC_KEY_FILE"`
	JWKSURL       string        `env:"JWKS_URL"`
	OIDCIssuer    string        `env:"OIDC_ISSUER"`
	Algorithms    []string      `env:"ALGORITHMS"      envDefault:"HS256" envSeparator:","`
	Issuer        string        `env:"ISSUER"`
	Audience      string        `env:"AUDIENCE"`
	Leeway        time.Duration `env:"LEEWAY"          envDefault:"0s"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Token TokenConfig `envPrefix:"TOKEN_"`

	// PasswordStageEnabled registers the HTTP Basic stage after the token interceptor.
	PasswordStageEnabled bool `env:"AUTH_PASSWORD_STAGE_ENABLED" envDefault:"false"`
	// BcryptCost is used by tooling that hashes passwords.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Sanitize trims values and normalizes algorithm names.
func (a *AuthConfig) Sanitize() {
	t := &a.Token
	t.Header = strings.TrimSpace(t.Header)
	if t.Header == "" {
		t.Header = "Authorization"
	}
	t.Scheme = strings.TrimSpace(t.Scheme)
	if t.Scheme == "" {
		t.Scheme = "Bearer"
	}
	t.PublicKeyFile = strings.TrimSpace(t.PublicKeyFile)
	t.JWKSURL = strings.TrimSpace(t.JWKSURL)
	t.OIDCIssuer = strings.TrimSpace(t.OIDCIssuer)
	t.Issuer = strings.TrimSpace(t.Issuer)
	t.Audience = strings.TrimSpace(t.Audience)
	if t.Leeway < 0 {
		t.Leeway = 0
	}

	algs := make([]string, 0, len(t.Algorithms))
	for _, alg := range t.Algorithms {
		alg = strings.ToUpper(strings.TrimSpace(alg))
		if alg != "" && !slices.Contains(algs, alg) {
			algs = append(algs, alg)
		}
	}
	t.Algorithms = algs

	a.BcryptCost = max(minBcryptCost, min(a.BcryptCost, maxBcryptCost))
}

// Validate checks that the key source has the material it needs.
func (a *AuthConfig) Validate() error {
	t := a.Token
	var errs []error
	if len(t.Algorithms) == 0 {
		errs = append(errs, errors.New("TOKEN_ALGORITHMS must list at least one algorithm"))
	}
	if slices.Contains(t.Algorithms, "NONE") {
		errs = append(errs, errors.New("TOKEN_ALGORITHMS must not include none"))
	}
	switch t.KeySource {
	case KeySourceHMAC:
		if t.Secret == "" {
			errs = append(errs, errors.New("TOKEN_SECRET is required for the hmac key source"))
		}
	case KeySourceRSAPEM:
		if t.PublicKeyFile == "" {
			errs = append(errs, errors.New("TOKEN_PUBLIC_KEY_FILE is required for the rsa-pem key source"))
		}
	case KeySourceJWKS:
		if t.JWKSURL == "" {
			errs = append(errs, errors.New("TOKEN_JWKS_URL is required for the jwks key source"))
		}
	case KeySourceOIDC:
		if t.OIDCIssuer == "" {
			errs = append(errs, errors.New("TOKEN_OIDC_ISSUER is required for the oidc key source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown key source %q", t.KeySource))
	}
	return errors.Join(errs...)
}
