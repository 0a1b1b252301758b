package auth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/teemow/workspace-mcp/internal/scopes"
)

// tokenSource adapts the Manager to oauth2.TokenSource so Google API
// clients can pull a valid token on every request without knowing about
// the credential lifecycle.
type tokenSource struct {
	ctx      context.Context
	manager  *Manager
	required scopes.ScopeSet
}

// TokenSource returns an oauth2.TokenSource that calls EnsureValid with
// the given required scope set. Each Token call goes through the manager's
// fast path unless a refresh or re-consent is due.
func (m *Manager) TokenSource(ctx context.Context, required scopes.ScopeSet) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m, required: required}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	snap, err := ts.manager.EnsureValid(ts.ctx, ts.required)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: snap.AccessToken,
		TokenType:   "Bearer",
		Expiry:      snap.Expiry,
	}, nil
}
