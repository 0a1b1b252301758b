package google

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

// TerminalConsent drives the authorization flow on a terminal: it prints
// the authorization URL and reads the code the user pastes back. Used by
// the auth command, where stdin and stdout belong to the user.
type TerminalConsent struct {
	creds ClientCredentials
	in    io.Reader
	out   io.Writer
}

// NewTerminalConsent creates a terminal consent flow reading codes from in
// and writing prompts to out.
func NewTerminalConsent(creds ClientCredentials, in io.Reader, out io.Writer) *TerminalConsent {
	return &TerminalConsent{creds: creds, in: in, out: out}
}

// Authorize prints the authorization URL, waits for the pasted code, and
// exchanges it for a credential.
func (t *TerminalConsent) Authorize(ctx context.Context, requested scopes.ScopeSet) (*auth.Credential, error) {
	url := AuthURL(t.creds, requested)
	fmt.Fprintf(t.out, "Open the following URL in your browser and authorize access:\n\n  %s\n\nPaste the authorization code here: ", url)

	type readResult struct {
		code string
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		reader := bufio.NewReader(t.in)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			ch <- readResult{err: err}
			return
		}
		ch <- readResult{code: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return nil, auth.ConsentDenied("timed out waiting for authorization code")
	case res := <-ch:
		if res.err != nil {
			return nil, &auth.Error{Code: auth.CodeConsentDenied, Description: "failed to read authorization code", Err: res.err}
		}
		if res.code == "" {
			return nil, auth.ConsentDenied("empty authorization code")
		}
		return Exchange(ctx, t.creds, requested, res.code)
	}
}

// DeferredConsent is the consent flow for stdio serving, where no terminal
// is available to prompt on. Authorize never blocks; it fails with
// instructions pointing at the google_get_auth_url and
// google_save_auth_code tools, which complete the flow out of band.
type DeferredConsent struct {
	creds ClientCredentials
}

// NewDeferredConsent creates the non-blocking consent flow.
func NewDeferredConsent(creds ClientCredentials) *DeferredConsent {
	return &DeferredConsent{creds: creds}
}

// Authorize reports that authorization must happen through the dedicated
// tools, including the ready-made URL for the requested scopes.
func (d *DeferredConsent) Authorize(_ context.Context, requested scopes.ScopeSet) (*auth.Credential, error) {
	url := AuthURL(d.creds, requested)
	return nil, auth.ReauthRequired(fmt.Sprintf(
		"authorization required: open %s in a browser, authorize access, then call google_save_auth_code with the resulting code", url))
}
