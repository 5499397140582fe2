// Package tokens issues and verifies the signed access tokens handed to
// the web client. Access tokens are stateless and never persisted; they
// cannot be revoked before their expiry.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/rs/zerolog/log"
)

var (
	logger = log.With().Str("component", "tokens").Logger()

	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("access token invalid")
)

type Config struct {
	// Issuer is the url of this auth service.
	Issuer string `yaml:"issuer"`

	// PrivateKeyPEM is RSA 256 private key in PEM format.
	PrivateKeyPEM string `yaml:"private_key_pem"`

	// AccessTokenTTL is the access token validity in seconds. The same
	// TTL applies whether the token was minted by login or by refresh.
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

func (c *Config) Validate() {
	if c.Issuer == "" {
		logger.Fatal().Msg("tokens.Config: Issuer is missing")
	}
	if c.PrivateKeyPEM == "" {
		logger.Fatal().Msg("tokens.Config: PrivateKeyPEM is missing")
	}
	if c.AccessTokenTTL <= 0 {
		// 15 minutes by default.
		c.AccessTokenTTL = 900
	}
}

// Claims is what Verify extracts from a valid token.
type Claims struct {
	Subject string
	Role    string
}

type Signer struct {
	config *Config

	privateKey jwk.Key
	publicKey  jwk.Key
}

func NewSigner(config *Config) (*Signer, error) {
	priv, err := jwk.ParseKey([]byte(config.PrivateKeyPEM), jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	pub, err := priv.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	return &Signer{
		config:     config,
		privateKey: priv,
		publicKey:  pub,
	}, nil
}

func (s *Signer) TTL() time.Duration {
	return time.Duration(s.config.AccessTokenTTL) * time.Second
}

// Issue mints a signed access token carrying the subject and role.
func (s *Signer) Issue(subject, role string) (string, error) {
	token, err := jwt.NewBuilder().
		Issuer(s.config.Issuer).
		JwtID(uuid.New().String()).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(s.TTL())).
		Subject(subject).
		Claim("role", role).
		Build()

	if err != nil {
		return "", fmt.Errorf("failed to build access token claims: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), s.privateKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %v", err)
	}

	return string(signed), nil
}

// Verify checks the signature and validity window and extracts the
// claims. Pure function over the token string, no I/O.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	verified, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.RS256(), s.publicKey))
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	iss, ok := verified.Issuer()
	if !ok || iss != s.config.Issuer {
		return nil, ErrTokenInvalid
	}

	sub, ok := verified.Subject()
	if !ok {
		return nil, ErrTokenInvalid
	}

	var role string
	if err := verified.Get("role", &role); err != nil {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		Subject: sub,
		Role:    role,
	}, nil
}

// PublicKey exposes the verification key for the JWKS endpoint, so
// resource servers can verify access tokens without sharing secrets.
func (s *Signer) PublicKey() jwk.Key {
	return s.publicKey
}
