package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teemow/workspace-mcp/internal/scopes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConsent struct {
	mu    sync.Mutex
	calls int
	cred  func(requested scopes.ScopeSet) (*Credential, error)
}

func (f *fakeConsent) Authorize(_ context.Context, requested scopes.ScopeSet) (*Credential, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.cred == nil {
		return nil, ConsentDenied("no consent configured")
	}
	return f.cred(requested)
}

func (f *fakeConsent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRefresher struct {
	calls   atomic.Int64
	refresh func(refreshToken string) (string, time.Time, error)
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (string, time.Time, error) {
	f.calls.Add(1)
	if f.refresh == nil {
		return "", time.Time{}, RefreshTransient("no refresher configured", nil)
	}
	return f.refresh(refreshToken)
}

type memStore struct {
	mu      sync.Mutex
	cred    *Credential
	saves   int
	deletes int
	loadErr error
	saveErr error
}

func (s *memStore) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.cred == nil {
		return nil, nil
	}
	c := *s.cred
	return &c, nil
}

func (s *memStore) Save(cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c := *cred
	s.cred = &c
	s.saves++
	return nil
}

func (s *memStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	s.deletes++
	return nil
}

func (s *memStore) stored() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

var testScopes = scopes.NewScopeSet("https://www.googleapis.com/auth/calendar")

func validCredential(expiresIn time.Duration) *Credential {
	return &Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(expiresIn).UTC(),
		Scopes:       scopes.NewScopeSet(testScopes.Sorted()...),
		Generation:   1,
	}
}

func newTestManager(t *testing.T, consent ConsentFlow, refresher TokenRefresher, store Store) *Manager {
	t.Helper()
	if consent == nil {
		consent = &fakeConsent{}
	}
	if refresher == nil {
		refresher = &fakeRefresher{}
	}
	if store == nil {
		store = &memStore{}
	}
	m, err := NewManager(consent, refresher, store, Config{
		RefreshTimeout: 2 * time.Second,
		ConsentTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerSeedsFromStore(t *testing.T) {
	store := &memStore{cred: validCredential(time.Hour)}
	m := newTestManager(t, nil, nil, store)

	assert.Equal(t, StateValid, m.State())
	assert.True(t, m.GrantedScopes().Equal(testScopes))
}

func TestNewManagerCorruptStoreFails(t *testing.T) {
	store := &memStore{loadErr: errors.New("unexpected end of JSON input")}
	_, err := NewManager(&fakeConsent{}, &fakeRefresher{}, store, Config{})
	assert.Error(t, err)
}

func TestEnsureValidFastPath(t *testing.T) {
	refresher := &fakeRefresher{}
	store := &memStore{cred: validCredential(time.Hour)}
	m := newTestManager(t, nil, refresher, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-1", snap.AccessToken)
	assert.False(t, snap.RefreshPending)
	assert.Zero(t, refresher.calls.Load(), "fast path must not refresh")
}

func TestEnsureValidRunsConsentWhenUnauthenticated(t *testing.T) {
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		return &Credential{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	store := &memStore{}
	m := newTestManager(t, consent, nil, store)
	require.Equal(t, StateUnauthenticated, m.State())

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-new", snap.AccessToken)
	assert.Equal(t, StateValid, m.State())
	require.NotNil(t, store.stored(), "granted credential must be persisted")
	assert.Equal(t, snap.Generation, store.stored().Generation)
}

func TestEnsureValidConsentDenied(t *testing.T) {
	consent := &fakeConsent{cred: func(scopes.ScopeSet) (*Credential, error) {
		return nil, ConsentDenied("user declined")
	}}
	m := newTestManager(t, consent, nil, nil)

	_, err := m.EnsureValid(context.Background(), testScopes)
	assert.True(t, IsCode(err, CodeConsentDenied))
	assert.Equal(t, StateUnauthenticated, m.State())

	// A later call simply tries consent again.
	_, err = m.EnsureValid(context.Background(), testScopes)
	assert.True(t, IsCode(err, CodeConsentDenied))
	assert.Equal(t, 2, consent.callCount())
}

func TestEnsureValidProactiveRefresh(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(refreshToken string) (string, time.Time, error) {
		assert.Equal(t, "refresh-1", refreshToken)
		return "access-2", time.Now().Add(time.Hour), nil
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)} // inside the buffer
	m := newTestManager(t, nil, refresher, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-2", snap.AccessToken)
	assert.Equal(t, int64(2), snap.Generation)
	assert.Equal(t, StateValid, m.State())
	assert.Equal(t, "access-2", store.stored().AccessToken)
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	release := make(chan struct{})
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		<-release
		return "access-2", time.Now().Add(time.Hour), nil
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	const callers = 50
	var wg sync.WaitGroup
	snaps := make([]Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], errs[i] = m.EnsureValid(context.Background(), testScopes)
		}(i)
	}

	// Give every caller time to either join the flight or queue on it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), refresher.calls.Load(), "callers must coalesce onto one refresh")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-2", snaps[i].AccessToken)
		assert.Equal(t, int64(2), snaps[i].Generation, "every caller observes the post-refresh generation")
	}
	assert.Equal(t, StateValid, m.State())
}

func TestConcurrentConsentFlowsAreSerialized(t *testing.T) {
	gmailScopes := scopes.NewScopeSet("https://www.googleapis.com/auth/gmail.modify")

	var inFlight, maxInFlight atomic.Int64
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		started <- struct{}{}
		<-release
		return &Credential{
			AccessToken:  "access-" + requested.Sorted()[0],
			RefreshToken: "refresh-new",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	m := newTestManager(t, consent, nil, nil)

	var wg sync.WaitGroup
	var snapA, snapB Snapshot
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		snapA, errA = m.EnsureValid(context.Background(), testScopes)
	}()
	go func() {
		defer wg.Done()
		snapB, errB = m.EnsureValid(context.Background(), gmailScopes)
	}()

	// Let one flow start and give the other caller time to attempt a
	// second one before anything completes.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, int64(1), maxInFlight.Load(), "at most one consent flow may be in flight at a time")
	assert.Equal(t, 2, consent.callCount(), "each scope set still gets its own flow, one after the other")
	assert.Equal(t, "access-"+testScopes.Sorted()[0], snapA.AccessToken,
		"each caller observes a credential consented for its own set")
	assert.Equal(t, "access-"+gmailScopes.Sorted()[0], snapB.AccessToken,
		"each caller observes a credential consented for its own set")
}

func TestScopeMismatchRetiresAndReconsents(t *testing.T) {
	widened := scopes.NewScopeSet(
		"https://www.googleapis.com/auth/calendar",
		"https://www.googleapis.com/auth/gmail.modify",
	)
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		assert.True(t, requested.Equal(widened), "consent must request the new set")
		return &Credential{
			AccessToken:  "access-wide",
			RefreshToken: "refresh-wide",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	refresher := &fakeRefresher{}
	store := &memStore{cred: validCredential(time.Hour)}
	m := newTestManager(t, consent, refresher, store)

	snap, err := m.EnsureValid(context.Background(), widened)
	require.NoError(t, err)
	assert.Equal(t, "access-wide", snap.AccessToken)
	assert.Equal(t, 1, consent.callCount())
	assert.Zero(t, refresher.calls.Load(), "a mismatched credential is never refreshed")
	assert.True(t, m.GrantedScopes().Equal(widened))
	assert.GreaterOrEqual(t, store.deletes, 1, "old credential record must be deleted")
}

func TestNarrowedScopesAlsoRetire(t *testing.T) {
	narrowed := scopes.NewScopeSet("https://www.googleapis.com/auth/gmail.modify")
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		return &Credential{
			AccessToken:  "access-narrow",
			RefreshToken: "refresh-narrow",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	m := newTestManager(t, consent, nil, &memStore{cred: validCredential(time.Hour)})

	snap, err := m.EnsureValid(context.Background(), narrowed)
	require.NoError(t, err)
	assert.Equal(t, "access-narrow", snap.AccessToken)
	assert.Equal(t, 1, consent.callCount())
}

func TestRevokedRefreshTokenRequiresReauth(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "", time.Time{}, ReauthRequired("invalid_grant")
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	_, err := m.EnsureValid(context.Background(), testScopes)
	assert.True(t, IsCode(err, CodeReauthRequired))
	assert.Equal(t, StateNeedsReauth, m.State())
	assert.Nil(t, store.stored(), "retired credential must be removed from the store")

	// The next call goes straight to consent.
	consent := m.consent.(*fakeConsent)
	consent.cred = func(requested scopes.ScopeSet) (*Credential, error) {
		return &Credential{
			AccessToken:  "access-again",
			RefreshToken: "refresh-again",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}
	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-again", snap.AccessToken)
	assert.Equal(t, int64(1), refresher.calls.Load(), "no refresh is attempted without a credential")
}

func TestTransientRefreshFailureFallsBackOnce(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "", time.Time{}, RefreshTransient("connection refused", errors.New("dial tcp"))
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err, "still-valid token is handed out once")
	assert.Equal(t, "access-1", snap.AccessToken)
	assert.True(t, snap.RefreshPending)
	assert.Equal(t, StateValid, m.State(), "transient failure must not change state")

	// The fallback is one-time: the second failure surfaces.
	_, err = m.EnsureValid(context.Background(), testScopes)
	assert.True(t, IsCode(err, CodeRefreshTransient))
	assert.Equal(t, StateValid, m.State())
}

func TestTransientFailureThenSuccessResetsFallback(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		if fail.Load() {
			return "", time.Time{}, RefreshTransient("blip", nil)
		}
		return "access-2", time.Now().Add(time.Hour), nil
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.True(t, snap.RefreshPending)

	fail.Store(false)
	snap, err = m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-2", snap.AccessToken)
	assert.False(t, snap.RefreshPending)
}

func TestRefreshTimeoutLeavesStateRecoverable(t *testing.T) {
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "", time.Time{}, RefreshTransient("context deadline exceeded", context.DeadlineExceeded)
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.True(t, snap.RefreshPending)
	assert.Equal(t, StateValid, m.State(), "no caller may be left stuck in refreshing")
}

func TestCallerContextCancelDuringRefresh(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		defer close(done)
		<-release
		return "access-2", time.Now().Add(time.Hour), nil
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, nil, refresher, store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := m.EnsureValid(ctx, testScopes)
	assert.ErrorIs(t, err, context.Canceled)

	// The shared exchange keeps running and commits for later callers.
	close(release)
	<-done
	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-2", snap.AccessToken)
}

func TestGrantInstallsCredential(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, nil, nil, store)

	cred := validCredential(time.Hour)
	require.NoError(t, m.Grant(cred))
	assert.Equal(t, StateValid, m.State())
	assert.NotNil(t, store.stored())

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-1", snap.AccessToken)
}

func TestGenerationMonotonicAcrossReconsent(t *testing.T) {
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		return &Credential{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	refresher := &fakeRefresher{refresh: func(string) (string, time.Time, error) {
		return "", time.Time{}, ReauthRequired("invalid_grant")
	}}
	store := &memStore{cred: validCredential(5 * time.Minute)}
	m := newTestManager(t, consent, refresher, store)

	_, err := m.EnsureValid(context.Background(), testScopes)
	require.Error(t, err)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Greater(t, snap.Generation, int64(1), "generation never moves backwards across credentials")
}

func TestPersistFailureDoesNotFailTheCall(t *testing.T) {
	consent := &fakeConsent{cred: func(requested scopes.ScopeSet) (*Credential, error) {
		return &Credential{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			Expiry:       time.Now().Add(time.Hour),
			Scopes:       requested,
		}, nil
	}}
	store := &memStore{saveErr: errors.New("disk full")}
	m := newTestManager(t, consent, nil, store)

	snap, err := m.EnsureValid(context.Background(), testScopes)
	require.NoError(t, err)
	assert.Equal(t, "access-new", snap.AccessToken)
}
