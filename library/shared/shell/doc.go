// Package shell provides the imperative shell around the library use cases.
//
// It holds the handler contracts shared by all feature slices, the retry logic for
// transient storage failures, the HandlerResult that carries retry metadata out of a
// handler, and the observability helpers used by the observable wrappers.
//
// The ledger does the check-and-mutate work atomically, so the shell never
// re-implements a business rule. It only decides what is retried, what is recorded
// and how an outcome is classified.
package shell
