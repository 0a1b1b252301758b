// Package instrumentation provides OpenTelemetry metrics and tracing for
// the workspace MCP server.
//
// The Provider wires exporters (Prometheus pull, OTLP push, or stdout for
// development) behind a single switch so the binary runs with or without
// an observability backend. Metrics cover the credential lifecycle
// (refreshes, consent flows, fallbacks), gate decisions, scope
// resolutions, tool invocations, and outbound Google API calls.
//
// All recording methods are safe on a zero-value Metrics: when
// instrumentation is disabled they are no-ops, so call sites never need
// an enabled check.
package instrumentation
