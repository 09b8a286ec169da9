package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

// UserStore defines the storage operations the Authenticator needs.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error)
	GetUserByEmail(ctx context.Context, email string) (ledger.User, error)
}

// Session is the outcome of a successful login or registration.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      ledger.User
}

// Authenticator logs users in and resolves tokens to actors.
type Authenticator struct {
	users  UserStore
	hasher BcryptHasher
	tokens Tokens
	logger ledger.ContextualLogger
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithLogger sets the logger for failed login attempts.
func WithLogger(logger ledger.ContextualLogger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(users UserStore, hasher BcryptHasher, tokens Tokens, opts ...AuthenticatorOption) Authenticator {
	authenticator := Authenticator{users: users, hasher: hasher, tokens: tokens}

	for _, opt := range opts {
		opt(&authenticator)
	}

	return authenticator
}

// Login checks the credentials and returns a new Session.
// Unknown emails and wrong passwords both fail with ErrInvalidCredentials.
func (a Authenticator) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := a.users.GetUserByEmail(ledger.WithStrongConsistency(ctx), ledger.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			a.logFailure(ctx, "login failed: unknown email")
			return Session{}, ErrInvalidCredentials
		}

		return Session{}, err
	}

	if compareErr := a.hasher.Compare(user.PasswordHash, password); compareErr != nil {
		a.logFailure(ctx, "login failed: password mismatch", "user_id", user.ID.String())
		return Session{}, compareErr
	}

	return a.IssueSession(user)
}

// IssueSession returns a Session for an already authenticated user, e.g. right after registration.
func (a Authenticator) IssueSession(user ledger.User) (Session, error) {
	token, expiresAt, err := a.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves token to the Actor of a still existing account.
// It fails with ErrInvalidToken, also when the account was removed.
func (a Authenticator) Authenticate(ctx context.Context, token string) (core.Actor, error) {
	userID, err := a.tokens.Parse(token)
	if err != nil {
		return core.Actor{}, err
	}

	user, err := a.users.GetUser(ledger.WithStrongConsistency(ctx), userID)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			return core.Actor{}, errors.Join(ErrInvalidToken, err)
		}

		return core.Actor{}, err
	}

	return core.BuildActor(user.ID, user.Role), nil
}

func (a Authenticator) logFailure(ctx context.Context, msg string, args ...any) {
	if a.logger != nil {
		a.logger.WarnContext(ctx, msg, args...)
	}
}
