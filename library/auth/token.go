package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const tokenIssuer = "library-ledger"

// Claims is the token payload. ID duplicates the subject for clients that read the "id" claim.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  core.Clock
}

// TokensOption configures Tokens.
type TokensOption func(*Tokens)

// WithTokenClock sets the clock used for issuing and expiring tokens.
func WithTokenClock(clock core.Clock) TokensOption {
	return func(t *Tokens) {
		t.clock = clock
	}
}

// NewTokens creates Tokens signing with secret, valid for ttl.
func NewTokens(secret []byte, ttl time.Duration, opts ...TokensOption) (Tokens, error) {
	if len(secret) == 0 {
		return Tokens{}, ErrEmptySecret
	}

	if ttl <= 0 {
		return Tokens{}, ErrInvalidTTL
	}

	tokens := Tokens{secret: secret, ttl: ttl, clock: core.SystemClock()}

	for _, opt := range opts {
		opt(&tokens)
	}

	return tokens, nil
}

// Issue returns a signed token for userID and its expiry.
func (t Tokens) Issue(userID uuid.UUID) (string, time.Time, error) {
	issuedAt := t.clock().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies token and returns the user id it was issued for.
func (t Tokens) Parse(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock),
	)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidToken, err)
	}

	return userID, nil
}
