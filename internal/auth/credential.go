package auth

import (
	"time"

	"github.com/teemow/workspace-mcp/internal/scopes"
)

// Credential is one delegated-access grant: the token pair the provider
// issued, when the access token expires, and the scope set the user
// consented to. It is owned exclusively by the Manager; nothing outside
// this package holds a mutable reference to it.
type Credential struct {
	// AccessToken is the short-lived bearer token.
	AccessToken string

	// RefreshToken is the long-lived token used to obtain new access
	// tokens. Present only after the first consent.
	RefreshToken string

	// Expiry is the absolute access-token expiry in UTC.
	Expiry time.Time

	// Scopes is the scope set this credential was granted for. A
	// credential is never reused across a scope change.
	Scopes scopes.ScopeSet

	// Generation increases on every refresh and every new grant, so
	// concurrent callers can tell a post-refresh credential from a stale
	// one.
	Generation int64
}

// snapshot returns an immutable view of the credential for callers.
func (c *Credential) snapshot() Snapshot {
	return Snapshot{
		AccessToken: c.AccessToken,
		Expiry:      c.Expiry,
		Generation:  c.Generation,
	}
}

// Snapshot is the caller-facing view of a credential. It is valid only for
// the instant it was issued; the underlying credential may be refreshed or
// retired concurrently.
type Snapshot struct {
	AccessToken string
	Expiry      time.Time
	Generation  int64

	// RefreshPending is set when a proactive refresh failed transiently
	// and the still-valid token is handed out as a one-time fallback. The
	// caller should retry soon so the refresh can be reattempted.
	RefreshPending bool
}

// State names the manager's position in the credential lifecycle.
type State string

const (
	// StateUnauthenticated means no credential exists; the consent flow
	// must run before any delegated call.
	StateUnauthenticated State = "unauthenticated"

	// StateValid means a credential exists whose expiry is in the future
	// and whose scopes match the last required set.
	StateValid State = "valid"

	// StateRefreshing means a token refresh is in flight; concurrent
	// callers wait for it instead of starting a second one.
	StateRefreshing State = "refreshing"

	// StateNeedsReauth means the provider rejected the refresh token or
	// the required scopes changed; only a new consent flow can recover.
	StateNeedsReauth State = "needs_reauth"
)
