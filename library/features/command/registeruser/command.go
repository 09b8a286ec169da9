package registeruser

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const commandType = "RegisterUser"

// Command represents the intent to create a library account.
// Actor is anonymous for a self-registration.
type Command struct {
	UserID       uuid.UUID
	Actor        core.Actor
	Name         string
	Email        string
	Password     string
	Role         ledger.Role
	RegisteredAt time.Time
}

// BuildCommand creates a new Command with the provided parameters. An empty role means ledger.DefaultRole.
func BuildCommand(
	userID uuid.UUID,
	actor core.Actor,
	name string,
	email string,
	password string,
	role ledger.Role,
	registeredAt time.Time,
) Command {
	if role == "" {
		role = ledger.DefaultRole
	}

	return Command{
		UserID:       userID,
		Actor:        actor,
		Name:         strings.TrimSpace(name),
		Email:        ledger.NormalizeEmail(email),
		Password:     password,
		Role:         ledger.Role(strings.ToLower(string(role))),
		RegisteredAt: core.ToTimestamp(registeredAt),
	}
}

// CommandType returns the command type identifier.
func (c Command) CommandType() string {
	return commandType
}
