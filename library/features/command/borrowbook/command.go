package borrowbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "BorrowBook"

// Command represents the intent of a user to borrow a copy of a book.
type Command struct {
	BorrowingID uuid.UUID
	UserID      uuid.UUID
	BookID      uuid.UUID
	BorrowedAt  time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(borrowingID, userID, bookID uuid.UUID, borrowedAt time.Time) Command {
	return Command{
		BorrowingID: borrowingID,
		UserID:      userID,
		BookID:      bookID,
		BorrowedAt:  core.ToTimestamp(borrowedAt),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
