// Package gate admits tool calls to Google services. A call for a disabled
// service is denied before any credential work happens; an admitted call
// gets a credential valid for the scopes of the current service selection.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

// DeniedError reports a call against a service the user has not enabled.
type DeniedError struct {
	Service string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("service %q is not enabled; enable it in the services configuration and retry", e.Service)
}

// IsDenied reports whether err is a DeniedError.
func IsDenied(err error) bool {
	var derr *DeniedError
	return errors.As(err, &derr)
}

// SelectionSource yields the current service selection. Implementations
// may re-read configuration on every call.
type SelectionSource interface {
	Selection() (scopes.Selection, error)
}

// CredentialSource yields a credential snapshot valid for a scope set.
// Satisfied by auth.Manager.
type CredentialSource interface {
	EnsureValid(ctx context.Context, required scopes.ScopeSet) (auth.Snapshot, error)
}

// Gate checks service enablement and resolves the selection to scopes
// before handing off to the credential source. The resolved scope set is
// cached and recomputed only when the selection changes between calls.
type Gate struct {
	catalog *scopes.Catalog
	source  SelectionSource
	creds   CredentialSource
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu       sync.Mutex
	lastSel  scopes.Selection
	resolved scopes.ScopeSet
}

// New builds a Gate. A nil logger uses slog.Default; nil metrics record
// nothing.
func New(catalog *scopes.Catalog, source SelectionSource, creds CredentialSource, logger *slog.Logger, metrics *instrumentation.Metrics) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	return &Gate{catalog: catalog, source: source, creds: creds, logger: logger, metrics: metrics}
}

// Admit checks that service is enabled and returns a credential snapshot
// covering the current selection's scopes. The enablement check runs
// first, so a denied call never touches the credential source.
func (g *Gate) Admit(ctx context.Context, service string) (auth.Snapshot, error) {
	required, err := g.requiredScopes(service)
	if err != nil {
		return auth.Snapshot{}, err
	}
	snap, err := g.creds.EnsureValid(ctx, required)
	if err != nil {
		g.logger.Warn("credential unavailable for admitted call",
			logging.Service(service), logging.Err(err))
		return auth.Snapshot{}, err
	}
	return snap, nil
}

// Check verifies enablement only, without touching credentials. Useful
// for operations that list or describe configuration.
func (g *Gate) Check(service string) error {
	_, err := g.requiredScopes(service)
	return err
}

// RequiredScopes returns the scope set the current selection resolves to.
func (g *Gate) RequiredScopes() (scopes.ScopeSet, error) {
	sel, err := g.source.Selection()
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveLocked(sel)
}

func (g *Gate) requiredScopes(service string) (scopes.ScopeSet, error) {
	if !g.catalog.Has(service) {
		return nil, &scopes.UnknownServiceError{Service: service}
	}

	sel, err := g.source.Selection()
	if err != nil {
		return nil, fmt.Errorf("failed to load service selection: %w", err)
	}
	if !sel.IsEnabled(service) {
		g.logger.Debug("call denied for disabled service", logging.Service(service))
		g.metrics.RecordGateDecision(context.Background(), service, instrumentation.DecisionDenied)
		return nil, &DeniedError{Service: service}
	}
	g.metrics.RecordGateDecision(context.Background(), service, instrumentation.DecisionAdmitted)

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveLocked(sel)
}

// resolveLocked returns the cached scope set when the selection is
// unchanged, otherwise re-resolves. Callers hold mu.
func (g *Gate) resolveLocked(sel scopes.Selection) (scopes.ScopeSet, error) {
	if g.lastSel != nil && g.lastSel.Equal(sel) {
		return g.resolved, nil
	}

	set, err := g.catalog.Resolve(sel)
	if err != nil {
		g.metrics.RecordScopeResolution(context.Background(), instrumentation.StatusError)
		return nil, err
	}
	g.metrics.RecordScopeResolution(context.Background(), instrumentation.StatusSuccess)
	if g.lastSel != nil {
		g.logger.Info("service selection changed",
			slog.Any("enabled", sel.Enabled()),
			slog.Any("scopes", set.Sorted()))
	}
	g.lastSel = sel.Clone()
	g.resolved = set
	return set, nil
}
