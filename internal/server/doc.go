// Package server provides the shared MCP server state for workspace-mcp.
//
// ServerContext ties the capability gate, the credential manager, and the
// service selection config together and hands out Google API clients.
// Every client accessor admits its service through the gate first, so a
// disabled service is rejected before any credential work happens.
// Clients are created lazily and cached until the service selection
// changes the resolved scope set.
//
// MetricsServer serves Prometheus metrics on a dedicated port, and
// HealthChecker exposes liveness and readiness endpoints next to it.
package server
