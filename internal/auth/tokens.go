// Package auth provides JWT token issuance/verification and the request
// authentication middleware.
//
// Tokens are stateless: everything needed to identify the caller (user ID,
// username, email, expiry) lives inside the signed token, so verification
// needs no session storage. The one stateful check — "does this user still
// exist and is the account active?" — happens in the middleware against the
// identity store on every authenticated request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller identity carried inside a token and attached to
// the request context after verification.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// Verification failures. Callers distinguish these with errors.Is — expired
// and invalid map to different client guidance (re-login vs. reject).
var (
	// ErrTokenMalformed means the string is not a parseable JWT at all.
	ErrTokenMalformed = errors.New("auth: malformed token")
	// ErrTokenInvalid means the token parsed but failed verification
	// (bad signature, wrong issuer, wrong algorithm).
	ErrTokenInvalid = errors.New("auth: invalid token")
	// ErrTokenExpired means the token was valid but is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)

const issuer = "bookline"

// TokenService issues and verifies HS256-signed JWTs.
//
// It holds the HMAC secret and the configured token lifetime. Both are fixed
// at construction; the service is safe for unlimited concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production (JWT_SECRET=$(openssl rand -hex 32)); anything under 16
// characters is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. The standard "sub" claim carries the user ID;
// username and email ride along as private claims so handlers can echo the
// caller without a lookup.
type claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Issue creates and signs a token for the given identity, expiring after
// the configured TTL (default 7 days, see config).
func (s *TokenService) Issue(id Identity) (string, error) {
	return s.IssueWithTTL(id, s.ttl)
}

// IssueWithTTL creates a token with a custom lifetime. A negative duration
// produces an already-expired token; tests use this to exercise the expiry
// path without sleeping.
func (s *TokenService) IssueWithTTL(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: id.Username,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
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

// Verify parses and verifies a token string and returns the identity it
// encodes.
//
// Failures are classified into exactly one of ErrTokenMalformed,
// ErrTokenExpired, or ErrTokenInvalid. The order matters: an expired token
// with a valid signature must report Expired, never Invalid.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token signed with
// "none" (or an RSA public key misused as an HMAC secret) is rejected.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
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
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %s", ErrTokenMalformed, err)
		default:
			return nil, fmt.Errorf("%w: %s", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}

	return &Identity{
		UserID:   c.Subject,
		Username: c.Username,
		Email:    c.Email,
	}, nil
}
