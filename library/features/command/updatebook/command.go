package updatebook

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "UpdateBook"

// Command represents the intent of a staff member to change a catalog entry.
type Command struct {
	BookID uuid.UUID
	Actor  core.Actor
	Update ledger.BookUpdate
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, actor core.Actor, update ledger.BookUpdate) Command {
	return Command{
		BookID: bookID,
		Actor:  actor,
		Update: update.Normalize(),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
