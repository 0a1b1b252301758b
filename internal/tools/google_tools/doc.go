// Package google_tools provides MCP tools for the Google OAuth consent
// flow.
//
// The flow when no credential exists:
//  1. Call google_get_auth_url to get the authorization URL for all
//     currently enabled services
//  2. The user visits the URL and authorizes access
//  3. Call google_save_auth_code with the resulting code
//
// The exchanged credential covers the union of scopes for every enabled
// service and is refreshed automatically from then on.
package google_tools
