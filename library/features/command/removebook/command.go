package removebook

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "RemoveBook"

// Command represents the intent of a staff member to remove a book from the catalog.
type Command struct {
	BookID uuid.UUID
	Actor  core.Actor
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, actor core.Actor) Command {
	return Command{BookID: bookID, Actor: actor}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
