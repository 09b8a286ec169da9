package updateuser

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "UpdateUser"

// Command represents the intent of an admin to change an account.
type Command struct {
	UserID uuid.UUID
	Actor  core.Actor
	Update ledger.UserUpdate
}

// BuildCommand creates a new Command with the provided parameters.
// Password changes are not part of this use case, a PasswordHash in update is discarded.
func BuildCommand(userID uuid.UUID, actor core.Actor, update ledger.UserUpdate) Command {
	update.PasswordHash = nil

	return Command{
		UserID: userID,
		Actor:  actor,
		Update: update.Normalize(),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
