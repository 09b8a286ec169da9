package removeuser

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "RemoveUser"

// Command represents the intent of an admin to delete an account.
type Command struct {
	UserID uuid.UUID
	Actor  core.Actor
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(userID uuid.UUID, actor core.Actor) Command {
	return Command{UserID: userID, Actor: actor}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
