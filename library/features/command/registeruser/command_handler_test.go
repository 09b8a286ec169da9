package registeruser_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/registeruser"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

type prefixHasher struct {
	err error
}

func (h prefixHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}

	return "hashed:" + password, nil
}

func buildCommand(actor core.Actor, email string, role ledger.Role) registeruser.Command {
	return registeruser.BuildCommand(uuid.New(), actor, " Jane Reader ", email, "s3cret", role, fakeClock)
}

func Test_CommandHandler_Handle_SelfRegistrationCreatesStudent(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	handler := registeruser.NewCommandHandler(store, prefixHasher{})
	command := buildCommand(core.Actor{}, " Jane@Example.COM ", "")

	// act
	result, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Jane Reader", result.Value.Name)
	assert.Equal(t, "jane@example.com", result.Value.Email)
	assert.Equal(t, ledger.RoleStudent, result.Value.Role)
	assert.Equal(t, "hashed:s3cret", result.Value.PasswordHash)

	stored, getErr := store.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, getErr)
	assert.Equal(t, command.UserID, stored.ID)
}

func Test_CommandHandler_Handle_ElevatedRolesNeedAdmin(t *testing.T) {
	testCases := []struct {
		name     string
		actor    core.Actor
		role     ledger.Role
		expected error
	}{
		{"anonymous librarian", core.Actor{}, ledger.RoleLibrarian, ledger.ErrNotAuthorized},
		{"librarian creates admin", core.BuildActor(uuid.New(), ledger.RoleLibrarian), ledger.RoleAdmin, ledger.ErrNotAuthorized},
		{"admin creates librarian", core.BuildActor(uuid.New(), ledger.RoleAdmin), ledger.RoleLibrarian, nil},
		{"admin creates student", core.BuildActor(uuid.New(), ledger.RoleAdmin), ledger.RoleStudent, nil},
		{"unknown role", core.Actor{}, ledger.Role("janitor"), ledger.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			handler := registeruser.NewCommandHandler(memoryengine.New(), prefixHasher{})

			// act
			_, err := handler.Handle(context.Background(), buildCommand(tc.actor, "user@example.com", tc.role))

			// assert
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_CommandHandler_Handle_Error_DuplicateEmail(t *testing.T) {
	// arrange
	ctx := context.Background()
	handler := registeruser.NewCommandHandler(memoryengine.New(), prefixHasher{})

	_, err := handler.Handle(ctx, buildCommand(core.Actor{}, "jane@example.com", ""))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, buildCommand(core.Actor{}, "JANE@example.com", ""))

	// assert
	assert.ErrorIs(t, err, ledger.ErrDuplicateEmail)
}

func Test_CommandHandler_Handle_Error_InvalidInput(t *testing.T) {
	// arrange
	handler := registeruser.NewCommandHandler(memoryengine.New(), prefixHasher{})

	testCases := []struct {
		name    string
		command registeruser.Command
	}{
		{"empty password", registeruser.BuildCommand(uuid.New(), core.Actor{}, "Jane", "jane@example.com", "", "", fakeClock)},
		{"blank name", registeruser.BuildCommand(uuid.New(), core.Actor{}, "  ", "jane@example.com", "pw", "", fakeClock)},
		{"malformed email", registeruser.BuildCommand(uuid.New(), core.Actor{}, "Jane", "not-an-email", "pw", "", fakeClock)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := handler.Handle(context.Background(), tc.command)

			// assert
			assert.ErrorIs(t, err, ledger.ErrInvalidInput)
		})
	}
}

func Test_CommandHandler_Handle_Error_HasherFailure(t *testing.T) {
	// arrange
	hashErr := errors.New("entropy exhausted")
	handler := registeruser.NewCommandHandler(memoryengine.New(), prefixHasher{err: hashErr})

	// act
	_, err := handler.Handle(context.Background(), buildCommand(core.Actor{}, "jane@example.com", ""))

	// assert
	assert.ErrorIs(t, err, hashErr)
	assert.True(t, strings.HasPrefix(err.Error(), "hashing password"))
}
