package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password, without telling which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for a missing, malformed, expired or foreign token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptySecret is returned when tokens would be signed with an empty key.
	ErrEmptySecret = errors.New("token secret must not be empty")

	// ErrInvalidTTL is returned when the token lifetime is not positive.
	ErrInvalidTTL = errors.New("token ttl must be positive")
)
