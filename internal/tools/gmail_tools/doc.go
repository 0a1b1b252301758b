// Package gmail_tools provides MCP tools for Gmail: searching and
// reading messages, sending email, creating drafts, and listing labels.
package gmail_tools
