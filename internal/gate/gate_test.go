package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

type fakeSource struct {
	sel scopes.Selection
	err error
}

func (f *fakeSource) Selection() (scopes.Selection, error) {
	return f.sel.Clone(), f.err
}

type fakeCreds struct {
	calls    int
	required []scopes.ScopeSet
	snap     auth.Snapshot
	err      error
}

func (f *fakeCreds) EnsureValid(_ context.Context, required scopes.ScopeSet) (auth.Snapshot, error) {
	f.calls++
	f.required = append(f.required, required)
	return f.snap, f.err
}

func newGate(t *testing.T, sel scopes.Selection) (*Gate, *fakeCreds) {
	t.Helper()
	creds := &fakeCreds{snap: auth.Snapshot{AccessToken: "tok", Generation: 1}}
	return New(scopes.DefaultCatalog(), &fakeSource{sel: sel}, creds, nil, nil), creds
}

func TestAdmitEnabledService(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"calendar": true})

	snap, err := g.Admit(context.Background(), "calendar")
	require.NoError(t, err)
	assert.Equal(t, "tok", snap.AccessToken)
	require.Equal(t, 1, creds.calls)
	assert.True(t, creds.required[0].Contains("https://www.googleapis.com/auth/calendar"))
}

func TestAdmitDisabledServiceSkipsCredentials(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"calendar": true})

	_, err := g.Admit(context.Background(), "gmail")
	require.Error(t, err)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "gmail", denied.Service)
	assert.Equal(t, 0, creds.calls, "denied call must not touch credentials")
}

func TestAdmitUnknownService(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"calendar": true})

	_, err := g.Admit(context.Background(), "fax")
	require.Error(t, err)

	var unknown *scopes.UnknownServiceError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, 0, creds.calls)
}

func TestAdmitResolvesDependencies(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"docs": true})

	_, err := g.Admit(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, 1, creds.calls)
	assert.True(t, creds.required[0].Contains("https://www.googleapis.com/auth/drive.file"),
		"docs pulls in its drive dependency")
}

func TestSelectionChangeTriggersReResolve(t *testing.T) {
	source := &fakeSource{sel: scopes.Selection{"calendar": true}}
	creds := &fakeCreds{snap: auth.Snapshot{AccessToken: "tok"}}
	g := New(scopes.DefaultCatalog(), source, creds, nil, nil)

	_, err := g.Admit(context.Background(), "calendar")
	require.NoError(t, err)
	assert.False(t, creds.required[0].Contains("https://www.googleapis.com/auth/gmail.modify"))

	source.sel = scopes.Selection{"calendar": true, "gmail": true}
	_, err = g.Admit(context.Background(), "calendar")
	require.NoError(t, err)
	require.Equal(t, 2, creds.calls)
	assert.True(t, creds.required[1].Contains("https://www.googleapis.com/auth/gmail.modify"),
		"new selection must be re-resolved")
}

func TestUnchangedSelectionReusesResolution(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"calendar": true, "gmail": true})

	first, err := g.Admit(context.Background(), "calendar")
	require.NoError(t, err)
	second, err := g.Admit(context.Background(), "gmail")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Equal(t, 2, creds.calls)
	assert.True(t, creds.required[0].Equal(creds.required[1]))
}

func TestAdmitPropagatesCredentialErrors(t *testing.T) {
	source := &fakeSource{sel: scopes.Selection{"calendar": true}}
	creds := &fakeCreds{err: auth.ReauthRequired("token revoked")}
	g := New(scopes.DefaultCatalog(), source, creds, nil, nil)

	_, err := g.Admit(context.Background(), "calendar")
	assert.True(t, auth.IsCode(err, auth.CodeReauthRequired))
}

func TestCheckDoesNotTouchCredentials(t *testing.T) {
	g, creds := newGate(t, scopes.Selection{"calendar": true})

	require.NoError(t, g.Check("calendar"))
	assert.True(t, IsDenied(g.Check("gmail")))
	assert.Equal(t, 0, creds.calls)
}
