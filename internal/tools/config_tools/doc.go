// Package config_tools provides the workspace_get_configuration MCP tool,
// which reports the service selection, the resolved OAuth scopes, and the
// current credential state.
package config_tools
