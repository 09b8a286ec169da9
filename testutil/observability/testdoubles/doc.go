// Package testdoubles provides test doubles (spies) for the observability interfaces of the ledger.
//
//   - MetricsCollectorSpy: captures metric recording calls
//   - TracingCollectorSpy: captures spans with their start and finish attributes
//   - ContextualLoggerSpy: captures context-aware log calls
//   - LogHandlerSpy: a slog.Handler that captures records, for code that takes a *slog.Logger
//
// They let tests verify the instrumentation without a telemetry backend.
package testdoubles
