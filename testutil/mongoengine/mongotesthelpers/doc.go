// Package mongotesthelpers provides test utilities for running the MongoDB ledger Store against a real server.
//
// Tests are skipped unless LIBRARY_TEST_MONGO_URI is set. The server must be a replica set,
// since the Store relies on multi-document transactions. Every Store gets its own database,
// which is dropped on cleanup.
package mongotesthelpers
