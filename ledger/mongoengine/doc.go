// Package mongoengine provides the MongoDB implementation of ledger.Store.
//
// Books, users and borrowings live in three collections. Every operation that touches more than one
// document runs in a multi-document transaction, so the server must be a replica set or a sharded cluster.
// The copy counters are changed with conditional updates ($gt / $expr guards),
// and a partial unique index on active borrowings enforces one active loan per user and book.
//
// Reads on a context marked with ledger.WithEventualConsistency use the secondaryPreferred read preference.
package mongoengine
