package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/calendar"
	"github.com/teemow/workspace-mcp/internal/config"
	"github.com/teemow/workspace-mcp/internal/docs"
	"github.com/teemow/workspace-mcp/internal/drive"
	"github.com/teemow/workspace-mcp/internal/gate"
	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/scopes"
)

// ServerContext holds the shared state for the MCP server: the capability
// gate, the credential manager, and lazily constructed Google API clients.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	gate    *gate.Gate
	manager *auth.Manager
	catalog *scopes.Catalog
	config  *config.File
	creds   google.ClientCredentials
	metrics *instrumentation.Metrics

	mu             sync.RWMutex
	clientScopes   scopes.ScopeSet
	calendarClient *calendar.Client
	gmailClient    *gmail.Client
	docsClient     *docs.Client
	driveClient    *drive.Client
	shutdown       bool
}

// NewServerContext creates a new server context. Google API clients are
// created on first use so that startup never blocks on credentials.
func NewServerContext(ctx context.Context, g *gate.Gate, manager *auth.Manager, catalog *scopes.Catalog, cfg *config.File, creds google.ClientCredentials) (*ServerContext, error) {
	if g == nil || manager == nil || catalog == nil || cfg == nil {
		return nil, fmt.Errorf("gate, manager, catalog and config are required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		gate:    g,
		manager: manager,
		catalog: catalog,
		config:  cfg,
		creds:   creds,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Gate returns the capability gate.
func (sc *ServerContext) Gate() *gate.Gate {
	return sc.gate
}

// Manager returns the credential manager.
func (sc *ServerContext) Manager() *auth.Manager {
	return sc.manager
}

// Catalog returns the service catalog.
func (sc *ServerContext) Catalog() *scopes.Catalog {
	return sc.catalog
}

// Config returns the service selection config file.
func (sc *ServerContext) Config() *config.File {
	return sc.config
}

// Credentials returns the OAuth client credentials.
func (sc *ServerContext) Credentials() google.ClientCredentials {
	return sc.creds
}

// Metrics returns the metrics recorder. The zero value records nothing,
// so callers never need a nil check.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.metrics == nil {
		return &instrumentation.Metrics{}
	}
	return sc.metrics
}

// SetMetrics installs the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.metrics = m
}

// CalendarClient admits the calendar service through the gate and returns
// a Calendar client backed by the credential manager.
func (sc *ServerContext) CalendarClient(ctx context.Context) (*calendar.Client, error) {
	if _, err := sc.gate.Admit(ctx, "calendar"); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	required, err := sc.syncClientCacheLocked()
	if err != nil {
		return nil, err
	}
	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	client, err := calendar.NewClient(sc.ctx, sc.manager.TokenSource(sc.ctx, required))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client: %w", err)
	}
	sc.calendarClient = client
	return client, nil
}

// GmailClient admits the gmail service through the gate and returns a
// Gmail client backed by the credential manager.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	if _, err := sc.gate.Admit(ctx, "gmail"); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	required, err := sc.syncClientCacheLocked()
	if err != nil {
		return nil, err
	}
	if sc.gmailClient != nil {
		return sc.gmailClient, nil
	}

	client, err := gmail.NewClient(sc.ctx, sc.manager.TokenSource(sc.ctx, required))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}
	sc.gmailClient = client
	return client, nil
}

// DocsClient admits the docs service through the gate and returns a Docs
// client backed by the credential manager.
func (sc *ServerContext) DocsClient(ctx context.Context) (*docs.Client, error) {
	if _, err := sc.gate.Admit(ctx, "docs"); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	required, err := sc.syncClientCacheLocked()
	if err != nil {
		return nil, err
	}
	if sc.docsClient != nil {
		return sc.docsClient, nil
	}

	client, err := docs.NewClient(sc.ctx, sc.manager.TokenSource(sc.ctx, required))
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs client: %w", err)
	}
	sc.docsClient = client
	return client, nil
}

// DriveClient admits the drive service through the gate and returns a
// Drive client backed by the credential manager.
func (sc *ServerContext) DriveClient(ctx context.Context) (*drive.Client, error) {
	if _, err := sc.gate.Admit(ctx, "drive"); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	required, err := sc.syncClientCacheLocked()
	if err != nil {
		return nil, err
	}
	if sc.driveClient != nil {
		return sc.driveClient, nil
	}

	client, err := drive.NewClient(sc.ctx, sc.manager.TokenSource(sc.ctx, required))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}
	sc.driveClient = client
	return client, nil
}

// syncClientCacheLocked returns the currently required scopes. A
// selection change alters the resolved set, which invalidates every
// cached client since their token sources are bound to the old set.
// Callers must hold sc.mu.
func (sc *ServerContext) syncClientCacheLocked() (scopes.ScopeSet, error) {
	required, err := sc.gate.RequiredScopes()
	if err != nil {
		return nil, err
	}
	if !required.Equal(sc.clientScopes) {
		sc.calendarClient = nil
		sc.gmailClient = nil
		sc.docsClient = nil
		sc.driveClient = nil
		sc.clientScopes = required
	}
	return required, nil
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
