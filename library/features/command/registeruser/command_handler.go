package registeruser

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	CreateUser(ctx context.Context, user ledger.User) (ledger.User, error)
}

// PasswordHasher turns a plain text password into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// CommandHandler runs the Register User use case with retry.
type CommandHandler struct {
	store        Store
	hasher       PasswordHasher
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, hasher PasswordHasher, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store, hasher: hasher}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle creates the User and returns it.
// Failures: ledger.ErrNotAuthorized, ledger.ErrInvalidInput, ledger.ErrDuplicateEmail.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.User], error) {
	rejected := func(err error) (shell.HandlerResult[ledger.User], error) {
		return shell.NewErrorResult(ledger.User{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	if command.Role != ledger.RoleStudent && command.Role.IsValid() {
		if err := core.RequireAdmin(command.Actor); err != nil {
			return rejected(err)
		}
	}

	if command.Password == "" {
		return rejected(fmt.Errorf("%w: password must not be empty", ledger.ErrInvalidInput))
	}

	hash, err := h.hasher.Hash(command.Password)
	if err != nil {
		return rejected(fmt.Errorf("hashing password: %w", err))
	}

	user := ledger.User{
		ID:           command.UserID,
		Name:         command.Name,
		Email:        command.Email,
		PasswordHash: hash,
		Role:         command.Role,
		CreatedAt:    command.RegisteredAt,
	}

	if validateErr := user.Validate(); validateErr != nil {
		return rejected(validateErr)
	}

	var created ledger.User

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var createErr error
		created, createErr = h.store.CreateUser(ledger.WithStrongConsistency(retryCtx), user)

		return createErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(ledger.User{}, retryMetrics), err
	}

	return shell.NewSuccessResult(created, retryMetrics), nil
}
