package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the workspace-mcp application
var rootCmd = &cobra.Command{
	Use:   "workspace-mcp",
	Short: "MCP server for Google Workspace",
	Long: `workspace-mcp is an MCP (Model Context Protocol) server that gives AI
assistants access to Google Workspace services: Calendar, Gmail, Docs,
and Drive.

Services are enabled and disabled through a selection file; disabled
services are rejected before any credential work happens. A single OAuth
credential covers all enabled services and is refreshed automatically.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workspace-mcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("workspace-mcp version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
