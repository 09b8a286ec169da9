// Package observable provides wrappers that instrument command and query handlers
// with metrics, tracing and logging while the handlers keep only the use case logic.
//
// The wrappers are applied explicitly at wiring time:
//
//	core := borrowbook.NewCommandHandler(store)
//
//	handler, err := observable.NewCommandWrapper[borrowbook.Command, ledger.Borrowing](
//		core,
//		observable.WithCommandMetrics[borrowbook.Command, ledger.Borrowing](metricsCollector),
//		observable.WithCommandTracing[borrowbook.Command, ledger.Borrowing](tracingCollector),
//		observable.WithCommandContextualLogging[borrowbook.Command, ledger.Borrowing](logger),
//	)
//
// Unit tests of the use cases use the core handlers directly.
package observable
