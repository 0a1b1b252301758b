package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/config"
	"github.com/teemow/workspace-mcp/internal/gate"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/scopes"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/calendar_tools"
	"github.com/teemow/workspace-mcp/internal/tools/config_tools"
	"github.com/teemow/workspace-mcp/internal/tools/docs_tools"
	"github.com/teemow/workspace-mcp/internal/tools/drive_tools"
	"github.com/teemow/workspace-mcp/internal/tools/gmail_tools"
	"github.com/teemow/workspace-mcp/internal/tools/google_tools"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		configPath     string
		credentialPath string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio.

Credentials:
  GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET must be set.
  When no stored credential exists, tools return the authorization URL;
  complete the flow with the google_save_auth_code tool, or run
  'workspace-mcp auth' beforehand for an interactive flow.

Service selection:
  Services are read from the selection file (--config). Changes are
  picked up without restarting the server. When the file is missing,
  calendar, gmail, docs, and drive are enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr == ":9090" {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}
			if os.Getenv("METRICS_ENABLED") == "false" {
				metricsEnabled = false
			}
			return runServe(debugMode, configPath, credentialPath, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the service selection file (default: user config dir)")
	cmd.Flags().StringVar(&credentialPath, "credential-file", "", "Path to the credential file (default: user cache dir)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(debugMode bool, configPath, credentialPath string, metricsEnabled bool, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Stdout carries the MCP protocol, so logs go to stderr.
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	sc, err := buildServerContext(shutdownCtx, logger, provider.Metrics(), configPath, credentialPath,
		func(creds google.ClientCredentials) auth.ConsentFlow {
			return google.NewDeferredConsent(creds)
		})
	if err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
			Health:                  server.NewHealthChecker(sc),
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", "error", err)
			}
		}
		if err := sc.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("workspace-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, sc); err != nil {
		return err
	}

	return runStdioServer(mcpSrv)
}

// buildServerContext wires config, catalog, credential manager, and gate
// into a ServerContext. The consent constructor differs between serve
// (deferred) and auth (interactive terminal).
func buildServerContext(ctx context.Context, logger *slog.Logger, metrics *instrumentation.Metrics, configPath, credentialPath string, newConsent func(google.ClientCredentials) auth.ConsentFlow) (*server.ServerContext, error) {
	creds, err := google.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}

	if configPath == "" {
		configPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfgFile := config.NewFile(configPath, logger)

	if credentialPath == "" {
		credentialPath, err = auth.DefaultCredentialPath()
		if err != nil {
			return nil, err
		}
	}
	store := auth.NewFileStore(credentialPath)

	manager, err := auth.NewManager(newConsent(creds), google.NewRefresher(creds), store, auth.Config{
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	catalog := scopes.DefaultCatalog()
	g := gate.New(catalog, cfgFile, manager, logger, metrics)

	sc, err := server.NewServerContext(ctx, g, manager, catalog, cfgFile, creds)
	if err != nil {
		return nil, err
	}
	sc.SetMetrics(metrics)
	return sc, nil
}

// registerAllTools registers the MCP tool surface. The auth and
// configuration tools are always available; service tools are only
// registered for enabled services. The gate still checks enablement per
// call, so a selection change mid-session is honored either way.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		service  string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Google auth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "Configuration",
			register: func() error {
				return config_tools.RegisterConfigTools(mcpSrv, sc)
			},
		},
		{
			name:    "Calendar",
			service: "calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name:    "Gmail",
			service: "gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc)
			},
		},
		{
			name:    "Docs",
			service: "docs",
			register: func() error {
				return docs_tools.RegisterDocsTools(mcpSrv, sc)
			},
		},
		{
			name:    "Drive",
			service: "drive",
			register: func() error {
				return drive_tools.RegisterDriveTools(mcpSrv, sc)
			},
		},
	}

	sel, err := sc.Config().Selection()
	if err != nil {
		return fmt.Errorf("failed to read service selection: %w", err)
	}

	for _, reg := range registrations {
		if reg.service != "" && !sel.IsEnabled(reg.service) {
			continue
		}
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
