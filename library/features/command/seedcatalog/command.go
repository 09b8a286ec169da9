package seedcatalog

import (
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "SeedCatalog"

// Command represents the intent to add the Entries to the catalog.
type Command struct {
	Entries  []Entry
	SeededAt time.Time
}

// BuildCommand creates a new Command. Without entries the DefaultCatalog is seeded.
func BuildCommand(seededAt time.Time, entries ...Entry) Command {
	if len(entries) == 0 {
		entries = DefaultCatalog()
	}

	return Command{
		Entries:  entries,
		SeededAt: core.ToTimestamp(seededAt),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
