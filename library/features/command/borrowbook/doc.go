// Package borrowbook implements the Borrow Book use case.
//
// A user borrows one copy of a book for the loan period. The storage layer checks and mutates
// atomically: the book must exist and have an available copy, the user must exist and must not
// already hold an active (borrowed or overdue) loan of the same book.
//
// Concurrency conflicts reported by the storage layer are retried with exponential backoff.
// A storage outage is never retried because the outcome of the write is unknown.
package borrowbook
