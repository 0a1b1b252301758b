// Package common provides shared helpers for MCP tool implementations:
// metrics-recording handler wrappers and retry of transient credential
// failures.
package common
