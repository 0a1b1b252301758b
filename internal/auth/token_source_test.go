package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSourceReturnsValidToken(t *testing.T) {
	store := &memStore{cred: validCredential(time.Hour)}
	m := newTestManager(t, nil, nil, store)

	ts := m.TokenSource(context.Background(), testScopes)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.False(t, tok.Expiry.IsZero())
}

func TestTokenSourceSurfacesLifecycleErrors(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "", time.Time{}, ReauthRequired("invalid_grant")
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	ts := m.TokenSource(context.Background(), testScopes)
	_, err := ts.Token()
	assert.True(t, IsCode(err, CodeReauthRequired))
}

func TestTokenSourcePicksUpRefreshedToken(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "access-2", time.Now().Add(time.Hour), nil
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	ts := m.TokenSource(context.Background(), testScopes)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)
}
