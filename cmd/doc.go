// Package cmd implements the command-line interface for workspace-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide Google Workspace tools
//   - auth: Run the interactive OAuth authorization flow
//   - version: Display version information
package cmd
