package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity snapshot carried inside a session token. It is a
// cached copy taken at issuance; authoritative role and status live in the
// user store.
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// tokenClaims is the on-the-wire JWT body.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// TokenCodec issues and verifies HS256 session tokens with a single
// process-wide secret. Construct it once at startup and share it.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec validates its inputs; an empty secret is never accepted
// here, the development fallback is decided by the caller.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = common.DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{secret: key, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of c that reads the current time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL is the validity window of issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs claims into a token that expires TTL from now.
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry. Expired tokens fail with
// common.ErrTokenExpired; everything else (bad signature, other algorithm,
// malformed input, missing exp) fails with common.ErrTokenInvalid.
func (c *TokenCodec) Verify(tokenString string) (Claims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, common.ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" {
		return Claims{}, common.ErrTokenInvalid
	}

	return Claims{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
