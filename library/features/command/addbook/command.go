package addbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "AddBook"

// Command represents the intent of a staff member to add a book to the catalog.
type Command struct {
	BookID      uuid.UUID
	Actor       core.Actor
	Title       string
	Author      string
	ISBN        string
	Genre       string
	Description string
	TotalCopies int
	AddedAt     time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	bookID uuid.UUID,
	actor core.Actor,
	title string,
	author string,
	isbn string,
	genre string,
	description string,
	totalCopies int,
	addedAt time.Time,
) Command {
	return Command{
		BookID:      bookID,
		Actor:       actor,
		Title:       title,
		Author:      author,
		ISBN:        isbn,
		Genre:       genre,
		Description: description,
		TotalCopies: totalCopies,
		AddedAt:     core.ToTimestamp(addedAt),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
