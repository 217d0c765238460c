// Package auth provides session tokens, one-time secrets, and the bearer
// middleware for the askbox API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /api/users → a handle is registered and a random secret is shown ONCE
// 2. POST /api/auth/login with {handle, secret} → server verifies the bcrypt
//    hash and issues a JWT access token
// 3. On subsequent requests the client sends "Authorization: Bearer <token>";
//    middleware validates the signature, re-fetches the user row, and puts
//    the user in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't store session data.
// Everything needed (userID, handle, expiry) is inside the signed token, and
// the signature ensures nobody can tamper with it without the secret key.
//
// The token deliberately binds BOTH the user ID and the handle. Verification
// re-fetches the user row and cross-checks the handle, so a token for a
// removed or renamed handle stops being useful even though its signature
// still verifies. Expiry is fixed at issuance (30 days) and non-renewable;
// there is no revocation list, so logout is purely client-side discard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed session length. 30 days: long enough that casual
// users aren't forced to re-auth, short enough to bound the blast radius of
// a leaked token.
const TokenTTL = 30 * 24 * time.Hour

const issuer = "askbox"

// TokenService handles JWT creation and validation. It holds the HMAC secret
// used to sign and verify tokens — the same secret must be used for both.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Identity is what a valid token proves: "the caller who created handle H".
type Identity struct {
	UserID string
	Handle string
}

// claims is the JWT payload. The standard "sub" claim carries the user ID;
// the handle rides along as a private claim so verification can detect a
// token that no longer matches its user row.
type claims struct {
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for the given identity.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, fine for a
// single-server deployment.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, TokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Handle: id.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
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

// Validate parses and verifies a JWT string and returns the identity it binds.
//
// Checks performed by the jwt library: signature, expiry, issuer, and that
// the algorithm really is HS256 (jwt.WithValidMethods prevents algorithm
// confusion attacks where an attacker substitutes "none").
//
// Note this only proves the token is authentic — the middleware still
// re-fetches the user row before trusting the identity.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
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
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" || c.Handle == "" {
		return Identity{}, fmt.Errorf("auth: token missing subject or handle")
	}

	return Identity{UserID: c.Subject, Handle: c.Handle}, nil
}
