// Package docs_tools provides MCP tools for Google Docs: creating
// documents, appending content, and reading documents as Markdown or
// plain text.
package docs_tools
