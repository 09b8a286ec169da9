// Package oteladapters provides OpenTelemetry implementations of the ledger observability interfaces.
//
//   - MetricsCollector: histograms for durations, counters for calls and errors, gauges for values
//   - TracingCollector: one span per Store operation or use case
//   - SlogBridgeLogger: a ContextualLogger on the otelslog bridge, correlating log records with traces
//   - OTelLogger: a ContextualLogger emitting records through the OpenTelemetry log API directly
//
// The shell and the storage engines depend on the interfaces in package ledger only,
// so this package is the single place that imports the OpenTelemetry API.
package oteladapters
