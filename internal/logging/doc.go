// Package logging provides structured logging helpers for workspace-mcp.
//
// It centralizes slog attribute naming so log lines are queryable across
// the codebase, and keeps secrets out of the logs: access and refresh
// tokens are never logged directly, only masked via SanitizeToken.
package logging
