package core

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// RequireUser fails with ledger.ErrNotAuthorized for an anonymous actor.
func RequireUser(actor Actor) error {
	if actor.IsAnonymous() {
		return fmt.Errorf("%w: authentication required", ledger.ErrNotAuthorized)
	}

	return nil
}

// RequireStaff fails with ledger.ErrNotAuthorized unless the actor is a librarian or an admin.
func RequireStaff(actor Actor) error {
	if !actor.IsStaff() {
		return fmt.Errorf("%w: librarian or admin role required", ledger.ErrNotAuthorized)
	}

	return nil
}

// RequireAdmin fails with ledger.ErrNotAuthorized unless the actor is an admin.
func RequireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ledger.ErrNotAuthorized)
	}

	return nil
}

// RequireSelfOrAdmin fails with ledger.ErrNotAuthorized unless the actor is the user or an admin.
func RequireSelfOrAdmin(actor Actor, userID uuid.UUID) error {
	if actor.IsAdmin() || (!actor.IsAnonymous() && actor.UserID == userID) {
		return nil
	}

	return fmt.Errorf("%w: only the user or an admin may do this", ledger.ErrNotAuthorized)
}
