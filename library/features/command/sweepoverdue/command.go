package sweepoverdue

import (
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "SweepOverdue"

// Command represents the intent to mark all loans overdue that are past their due date at Now.
type Command struct {
	Now time.Time
}

// BuildCommand creates a new Command for the given sweep time.
func BuildCommand(now time.Time) Command {
	return Command{Now: core.ToTimestamp(now)}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
