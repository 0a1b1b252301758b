// Package drive_tools provides MCP tools for Google Drive: listing and
// searching files, uploading text content, creating folders, and
// deleting files.
package drive_tools
