// Package ledger provides the core types and contracts of the library inventory and borrowing ledger.
//
// The ledger owns all mutations of book availability and all Borrowing records.
// Every check-and-mutate sequence (borrow, return, overdue transition, catalog changes that touch
// the copy counters) is executed by a Store implementation as one atomic unit of work,
// so that the following invariants hold for every Book at all times:
//
//	0 <= AvailableCopies <= TotalCopies
//	AvailableCopies == TotalCopies - count(Borrowing{BookID, Status in {borrowed, overdue}})
//
// and for every (user, book) pair at most one active Borrowing exists.
//
// Store implementations live in the sub-packages postgresengine, mongoengine and memoryengine.
// The ledgertest package contains a conformance suite that every Store must pass.
//
// Failures are reported as sentinel errors (see errors.go) which callers match with errors.Is.
// ErrorCode maps any returned error to a stable, machine-readable code.
package ledger
