// Package inventoryaudit implements the Inventory Audit query.
//
// It recomputes the copy counters of every book from the borrowing ledger and reports each book
// whose stored counters disagree. The audit only reads. Callers decide how to surface drift:
// the admin route returns the report as data, the CLI turns a non-empty report into an error.
package inventoryaudit
