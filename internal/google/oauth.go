package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

const oobRedirect = "urn:ietf:wg:oauth:2.0:oob"

// ClientCredentials identify the OAuth application at Google. The zero
// value is filled from the GOOGLE_OAUTH_CLIENT_ID and
// GOOGLE_OAUTH_CLIENT_SECRET environment variables.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads the client credentials from the environment.
func CredentialsFromEnv() (ClientCredentials, error) {
	creds := ClientCredentials{
		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return ClientCredentials{}, fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET must be set")
	}
	return creds, nil
}

// OAuthConfig builds the oauth2 configuration for a scope set. The scopes
// are sorted so two equal sets produce identical authorization URLs.
func OAuthConfig(creds ClientCredentials, set scopes.ScopeSet) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oobRedirect,
		Scopes:       set.Sorted(),
	}
}

// AuthURL returns the authorization URL the user must visit to grant the
// given scope set. Offline access and a forced consent prompt make sure
// Google returns a refresh token even when the user authorized before.
func AuthURL(creds ClientCredentials, set scopes.ScopeSet) string {
	conf := OAuthConfig(creds, set)
	return conf.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a credential covering the
// given scope set.
func Exchange(ctx context.Context, creds ClientCredentials, set scopes.ScopeSet, authCode string) (*auth.Credential, error) {
	conf := OAuthConfig(creds, set)

	tok, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, classify("failed to exchange auth code", err)
	}
	if tok.RefreshToken == "" {
		return nil, auth.ReauthRequired("authorization response contained no refresh token")
	}

	return &auth.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry.UTC(),
		Scopes:       scopes.NewScopeSet(set.Sorted()...),
	}, nil
}

// Refresher exchanges refresh tokens for access tokens at Google's token
// endpoint.
type Refresher struct {
	creds ClientCredentials
}

// NewRefresher creates a Refresher for the given client credentials.
func NewRefresher(creds ClientCredentials) *Refresher {
	return &Refresher{creds: creds}
}

// Refresh performs one token exchange. A rejected refresh token comes back
// as a reauth-required error, anything retryable as transient.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	conf := OAuthConfig(r.creds, nil)

	// Expiry in the past forces TokenSource to hit the token endpoint.
	ts := conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})

	tok, err := ts.Token()
	if err != nil {
		return "", time.Time{}, classify("token refresh failed", err)
	}
	return tok.AccessToken, tok.Expiry.UTC(), nil
}
