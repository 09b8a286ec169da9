package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Actor is the authenticated user on whose behalf an operation runs.
// The zero value is an anonymous actor.
type Actor struct {
	UserID uuid.UUID
	Role   ledger.Role
}

// BuildActor creates an Actor for the given user and role.
func BuildActor(userID uuid.UUID, role ledger.Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// IsAnonymous reports whether no user is acting.
func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

// IsStaff reports whether the actor is a librarian or an admin.
func (a Actor) IsStaff() bool {
	return !a.IsAnonymous() && a.Role.IsStaff()
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool {
	return !a.IsAnonymous() && a.Role.IsAdmin()
}
