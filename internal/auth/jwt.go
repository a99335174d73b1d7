// Package auth provides bearer-token issuance/verification, password
// hashing, and the authentication middleware.
//
// The session model is stateless: a signed JWT carries the username and an
// absolute expiry, and the server keeps no per-session state. The signature
// ensures nobody can alter the claims without the secret key, so any request
// carrying a valid, unexpired token is authenticated without a token store.
// The flip side is that a token cannot be revoked before it expires; the
// short configured lifetime is the mitigation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "blog-api"

// Verification failures, distinguished so callers can log the cause.
// All of them surface as 401 at the HTTP edge.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenInvalid   = errors.New("auth: token invalid")
)

// TokenService issues and verifies JWT access tokens.
//
// It holds the HMAC secret and the configured token lifetime, both set once
// at startup and never mutated afterwards. The same secret signs and
// verifies; keep it long and random (e.g. openssl rand -hex 32).
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; lifetime is the expiry applied by Generate.
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

// claims embeds jwt.RegisteredClaims; the username travels in "sub".
// A token caches nothing else about the user: the middleware re-resolves
// the live record on every request.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for the given username with the configured lifetime.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, s.lifetime)
}

// GenerateWithDuration signs a token with a custom expiry. Used by tests to
// produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the username it
// was issued for.
//
// Checks performed: HS256 signature (WithValidMethods pins the algorithm,
// preventing alg-confusion tokens), expiry, and issuer. Failures map to
// ErrTokenExpired, ErrTokenMalformed, or ErrTokenInvalid.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		default:
			return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return c.Subject, nil
}
