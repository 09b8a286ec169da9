// Package memoryengine provides an in-process implementation of ledger.Store.
//
// All state lives in maps guarded by one mutex, so every operation is trivially atomic.
// It serves tests, the conformance suite and local development without a database.
package memoryengine
