// Package google implements the Google OAuth2 side of credential
// management: building the authorization URL for a scope set, exchanging
// authorization codes, and refreshing access tokens.
//
// The package provides two consent flows. TerminalConsent prompts on the
// controlling terminal and is used by the auth CLI command. DeferredConsent
// never blocks; it reports how to authorize out of band, which is the only
// option when the process is serving MCP over stdio.
package google
