package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

const (
	// DefaultRefreshBuffer is how long before expiry a refresh is
	// attempted proactively. Refreshing early means a long-running session
	// never hands out a token that expires between fetch and use.
	DefaultRefreshBuffer = 10 * time.Minute

	// DefaultRefreshTimeout bounds one token-endpoint exchange.
	DefaultRefreshTimeout = 30 * time.Second

	// DefaultConsentTimeout bounds one interactive consent attempt. The
	// flow has a human in the loop, so this is generous.
	DefaultConsentTimeout = 5 * time.Minute
)

// ConsentFlow drives the interactive authorization for a scope set and
// returns the resulting credential. Implementations block for as long as
// the flow takes (human in the loop) and honor context cancellation.
type ConsentFlow interface {
	Authorize(ctx context.Context, requested scopes.ScopeSet) (*Credential, error)
}

// TokenRefresher exchanges a refresh token for a new access token at the
// provider's token endpoint. Implementations classify failures: a revoked
// or invalid refresh token is reported as CodeReauthRequired, anything
// retryable as CodeRefreshTransient.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiry time.Time, err error)
}

// Store persists the credential across process restarts. Load returns
// (nil, nil) when no record exists.
type Store interface {
	Load() (*Credential, error)
	Save(*Credential) error
	Delete() error
}

// Config tunes Manager timeouts. Zero values pick the defaults above.
type Config struct {
	RefreshBuffer  time.Duration
	RefreshTimeout time.Duration
	ConsentTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *instrumentation.Metrics
}

// Manager owns the session credential and its lifecycle:
//
//	Unauthenticated -> Valid -> Refreshing -> Valid | NeedsReauth
//
// with NeedsReauth also reachable directly from Valid on a scope mismatch
// or a revoked refresh token. All state mutation happens under mu; the
// consent flow and token refresh are coalesced through sf so at most one of
// each is in flight regardless of caller concurrency.
type Manager struct {
	consent   ConsentFlow
	refresher TokenRefresher
	store     Store
	cfg       Config
	logger    *slog.Logger

	sf singleflight.Group

	mu             sync.Mutex
	state          State
	cred           *Credential
	lastGeneration int64
	fallbackUsed   bool
}

// NewManager builds a Manager and seeds it from the persisted credential
// record, if one exists. A missing record starts the session
// Unauthenticated; a corrupt one is an error so it is not silently
// discarded.
func NewManager(consent ConsentFlow, refresher TokenRefresher, store Store, cfg Config) (*Manager, error) {
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = DefaultRefreshBuffer
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	if cfg.ConsentTimeout <= 0 {
		cfg.ConsentTimeout = DefaultConsentTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	m := &Manager{
		consent:   consent,
		refresher: refresher,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		state:     StateUnauthenticated,
	}

	cred, err := store.Load()
	if err != nil {
		return nil, err
	}
	if cred != nil {
		m.cred = cred
		m.lastGeneration = cred.Generation
		m.state = StateValid
		logger.Debug("loaded persisted credential",
			slog.Int64("generation", cred.Generation),
			slog.Time("expiry", cred.Expiry))
	}

	return m, nil
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GrantedScopes returns a copy of the scope set the cached credential was
// granted for, or nil when no credential is cached.
func (m *Manager) GrantedScopes() scopes.ScopeSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	return scopes.NewScopeSet(m.cred.Scopes.Sorted()...)
}

// EnsureValid returns a credential snapshot that is valid for the required
// scope set, driving consent, retirement, or refresh as needed. The fast
// path (cached credential, matching scopes, expiry comfortably in the
// future) does no I/O.
func (m *Manager) EnsureValid(ctx context.Context, required scopes.ScopeSet) (Snapshot, error) {
	// The loop re-evaluates after a coalesced refresh or consent completes:
	// a waiter must observe the post-transition credential, and a scope
	// change committed concurrently sends it down the consent path instead.
	// Each iteration either returns or has made provider-level progress, and
	// the cap keeps a pathological interleaving from spinning.
	for attempt := 0; attempt < 4; attempt++ {
		m.mu.Lock()
		switch {
		case m.cred == nil, m.state == StateNeedsReauth:
			m.mu.Unlock()
			snap, retry, err := m.runConsent(ctx, required)
			if err != nil {
				return Snapshot{}, err
			}
			if !retry {
				return snap, nil
			}

		case !m.cred.Scopes.Equal(required):
			m.retireLocked("scope mismatch",
				slog.Any("granted", m.cred.Scopes.Sorted()),
				slog.Any("required", required.Sorted()))
			m.mu.Unlock()
			snap, retry, err := m.runConsent(ctx, required)
			if err != nil {
				return Snapshot{}, err
			}
			if !retry {
				return snap, nil
			}

		case time.Until(m.cred.Expiry) <= m.cfg.RefreshBuffer:
			m.mu.Unlock()
			snap, err := m.runRefresh(ctx)
			if err != nil {
				return Snapshot{}, err
			}
			if snap != nil {
				// Transient failure fallback: still-valid token, handed
				// out once, flagged so the caller retries.
				return *snap, nil
			}

		default:
			snap := m.cred.snapshot()
			m.mu.Unlock()
			return snap, nil
		}
	}
	return Snapshot{}, RefreshTransient("credential state kept changing during ensure", nil)
}

// Grant installs a credential obtained outside the manager's own consent
// collaborator (the deferred auth-code flow), persists it, and moves the
// session to Valid.
func (m *Manager) Grant(cred *Credential) error {
	if cred == nil {
		return errors.New("credential cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(cred)
	m.logger.Info("credential granted",
		slog.Int64("generation", cred.Generation),
		slog.Time("expiry", cred.Expiry))
	return nil
}

// retireLocked discards the cached credential and its persisted record.
// Callers hold mu.
func (m *Manager) retireLocked(reason string, attrs ...any) {
	m.cred = nil
	m.state = StateNeedsReauth
	m.fallbackUsed = false
	if err := m.store.Delete(); err != nil {
		m.logger.Warn("failed to delete persisted credential", logging.Err(err))
	}
	m.logger.Info("credential retired", append([]any{slog.String("reason", reason)}, attrs...)...)
}

// commitLocked installs cred as the session credential, stamping the next
// generation and persisting it. Callers hold mu.
func (m *Manager) commitLocked(cred *Credential) {
	m.lastGeneration++
	cred.Generation = m.lastGeneration
	cred.Expiry = cred.Expiry.UTC()
	m.cred = cred
	m.state = StateValid
	m.fallbackUsed = false
	if err := m.store.Save(cred); err != nil {
		// The in-memory credential is still usable; losing persistence
		// only costs a re-consent after restart.
		m.logger.Warn("failed to persist credential", logging.Err(err))
	}
}

// consentResult carries the scope set the shared flow actually asked for,
// so a waiter that required a different set knows to re-evaluate.
type consentResult struct {
	snap      Snapshot
	requested scopes.ScopeSet
}

// runConsent drives the consent collaborator for the required scopes.
// Every consent shares one singleflight key, whatever the scope set: the
// flow has a human in the loop, and two prompts must never be up at once.
// retry is true when the completed flow was for a different set; the
// caller re-evaluates and, if still needed, starts its own flow after.
func (m *Manager) runConsent(ctx context.Context, required scopes.ScopeSet) (snap Snapshot, retry bool, err error) {
	ch := m.sf.DoChan("consent", func() (any, error) {
		s, err := m.consentOnce(required)
		if err != nil {
			return nil, err
		}
		return consentResult{snap: s, requested: required}, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, false, res.Err
		}
		cr := res.Val.(consentResult)
		if !cr.requested.Equal(required) {
			return Snapshot{}, true, nil
		}
		return cr.snap, false, nil
	}
}

func (m *Manager) consentOnce(required scopes.ScopeSet) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConsentTimeout)
	defer cancel()

	m.logger.Info("starting consent flow", slog.Any("scopes", required.Sorted()))
	cred, err := m.consent.Authorize(ctx, required)
	if err != nil {
		m.cfg.Metrics.RecordConsentFlow(ctx, instrumentation.ConsentResultDenied)
		// State is left where it was (Unauthenticated or NeedsReauth), so
		// the next call simply tries again.
		var aerr *Error
		if errors.As(err, &aerr) {
			return Snapshot{}, aerr
		}
		return Snapshot{}, &Error{Code: CodeConsentDenied, Description: "consent flow failed", Err: err}
	}
	m.cfg.Metrics.RecordConsentFlow(ctx, instrumentation.ConsentResultSuccess)
	if cred.Scopes == nil {
		cred.Scopes = scopes.NewScopeSet(required.Sorted()...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(cred)
	m.logger.Info("consent flow succeeded",
		slog.Int64("generation", cred.Generation),
		slog.Time("expiry", cred.Expiry))
	return cred.snapshot(), nil
}

// runRefresh coalesces concurrent refresh attempts onto a single token
// exchange. It returns (nil, nil) when the refresh succeeded and the caller
// should re-evaluate, a non-nil snapshot for the one-time transient
// fallback, or an error.
func (m *Manager) runRefresh(ctx context.Context) (*Snapshot, error) {
	ch := m.sf.DoChan("refresh", func() (any, error) {
		return nil, m.refreshOnce()
	})

	var err error
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		err = res.Err
	}
	if err == nil {
		return nil, nil
	}

	if IsCode(err, CodeRefreshTransient) {
		m.mu.Lock()
		defer m.mu.Unlock()
		// The still-valid token may be returned once as a fallback so a
		// transient blip near the buffer boundary does not fail the call.
		if m.cred != nil && time.Until(m.cred.Expiry) > 0 && !m.fallbackUsed {
			m.fallbackUsed = true
			snap := m.cred.snapshot()
			snap.RefreshPending = true
			m.cfg.Metrics.RecordCredentialFallback(ctx)
			m.logger.Warn("refresh failed transiently, returning still-valid token once", logging.Err(err))
			return &snap, nil
		}
	}
	return nil, err
}

// refreshOnce performs one token exchange. Exactly one instance runs at a
// time (singleflight); the state transition to Valid, including the
// generation bump and persistence, is committed under mu before any waiter
// is released.
func (m *Manager) refreshOnce() error {
	m.mu.Lock()
	if m.cred == nil {
		m.mu.Unlock()
		return ReauthRequired("no credential to refresh")
	}
	if m.cred.RefreshToken == "" {
		m.retireLocked("no refresh token")
		m.mu.Unlock()
		return ReauthRequired("credential has no refresh token")
	}
	before := m.cred
	refreshToken := m.cred.RefreshToken
	m.state = StateRefreshing
	m.mu.Unlock()

	// The attempt is bounded by its own timeout rather than any single
	// caller's context: the exchange is shared by every waiter.
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RefreshTimeout)
	defer cancel()
	start := time.Now()
	accessToken, expiry, err := m.refresher.Refresh(ctx, refreshToken)
	m.cfg.Metrics.RecordCredentialRefresh(ctx, refreshResult(err), time.Since(start))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred != before {
		// Retired or replaced while the exchange was in flight; the result
		// no longer applies. State has already been set by whoever did it.
		return nil
	}

	if err != nil {
		if IsCode(err, CodeReauthRequired) {
			m.retireLocked("refresh token rejected by provider", logging.Err(err))
			return err
		}
		// Transient (network, timeout): back to the pre-attempt state so
		// later callers retry instead of deadlocking on Refreshing.
		m.state = StateValid
		var aerr *Error
		if errors.As(err, &aerr) {
			return aerr
		}
		return RefreshTransient("token refresh failed", err)
	}

	m.cred.AccessToken = accessToken
	m.cred.Expiry = expiry.UTC()
	m.lastGeneration++
	m.cred.Generation = m.lastGeneration
	m.state = StateValid
	m.fallbackUsed = false
	if err := m.store.Save(m.cred); err != nil {
		m.logger.Warn("failed to persist refreshed credential", logging.Err(err))
	}
	m.logger.Debug("token refreshed",
		slog.Int64("generation", m.cred.Generation),
		slog.Time("expiry", m.cred.Expiry))
	return nil
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return instrumentation.RefreshResultSuccess
	case IsCode(err, CodeReauthRequired):
		return instrumentation.RefreshResultReauth
	default:
		return instrumentation.RefreshResultTransient
	}
}
