// Package auth owns the delegated-access credential for the session.
//
// A Manager holds the single cached credential: its access token, refresh
// token, expiry, the scope set it was granted for, and a generation counter
// bumped on every refresh. Callers never see the credential itself; they
// get an immutable Snapshot that is valid only for the instant it was
// issued.
//
// The interesting behavior is in EnsureValid: it refreshes proactively
// before expiry rather than reacting to failures, retires the credential
// when the required scope set no longer matches the granted one, and
// coalesces concurrent refresh attempts so that at most one token exchange
// is ever in flight. The interactive consent flow and the provider token
// endpoint are injected as collaborators, so tests substitute fakes.
package auth
