package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/workspace-mcp/internal/auth"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
)

func newAuthCmd() *cobra.Command {
	var (
		configPath     string
		credentialPath string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the interactive OAuth authorization flow",
		Long: `Authorize access to the enabled Google services interactively.

Prints the authorization URL, waits for the code on stdin, exchanges it,
and persists the resulting credential. Run this once before starting the
server, or whenever a tool reports that authorization is required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(configPath, credentialPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the service selection file (default: user config dir)")
	cmd.Flags().StringVar(&credentialPath, "credential-file", "", "Path to the credential file (default: user cache dir)")

	return cmd
}

func runAuth(configPath, credentialPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sc, err := buildServerContext(ctx, logger, &instrumentation.Metrics{}, configPath, credentialPath,
		func(creds google.ClientCredentials) auth.ConsentFlow {
			return google.NewTerminalConsent(creds, os.Stdin, os.Stdout)
		})
	if err != nil {
		return err
	}
	defer func() { _ = sc.Shutdown() }()

	required, err := sc.Gate().RequiredScopes()
	if err != nil {
		return fmt.Errorf("failed to resolve required scopes: %w", err)
	}

	snap, err := sc.Manager().EnsureValid(ctx, required)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Printf("Authorization successful. Credential valid until %s.\n", snap.Expiry.Local().Format("2006-01-02 15:04:05"))
	return nil
}
