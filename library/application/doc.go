// Package application assembles the use case handlers of the library.
//
// New builds every command and query handler over one ledger.Store and wraps each in its observable
// wrapper, so the HTTP API, the sweeper and the CLI share the same instrumented handlers.
package application
