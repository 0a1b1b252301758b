// Package scopes maps the user's service selection to the Google OAuth
// scopes that selection requires.
//
// Services are capability groups (calendar, gmail, docs, ...) that the user
// enables or disables as a unit. Some services depend on others: enabling
// docs pulls in drive, because the Docs API cannot place a document without
// Drive file access. Resolve computes the dependency closure of a selection
// and returns the deduplicated scope set for it.
//
// Resolution is a pure function: no I/O, deterministic, and idempotent, so
// a resolved ScopeSet can be compared by equality against the scope set a
// stored credential was granted for.
package scopes
