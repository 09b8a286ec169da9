// Package returnbook implements the Return Book use case.
//
// Only librarians and admins may record a return. The authorization check happens before any
// storage access. A borrowed or overdue Borrowing transitions to returned and the copy becomes
// available again.
//
// If the book's counter is already at its total, the return is still recorded but the handler
// reports ledger.ErrInconsistentState together with the returned Borrowing, so the drift is
// surfaced loudly instead of being hidden.
package returnbook
