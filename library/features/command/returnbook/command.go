package returnbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "ReturnBook"

// Command represents the intent of a staff member to record the return of a borrowed copy.
type Command struct {
	BorrowingID uuid.UUID
	Actor       core.Actor
	ReturnedAt  time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(borrowingID uuid.UUID, actor core.Actor, returnedAt time.Time) Command {
	return Command{
		BorrowingID: borrowingID,
		Actor:       actor,
		ReturnedAt:  core.ToTimestamp(returnedAt),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
