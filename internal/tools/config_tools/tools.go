package config_tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterConfigTools registers the configuration inspection tools with
// the MCP server.
func RegisterConfigTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getConfigTool := mcp.NewTool("workspace_get_configuration",
		mcp.WithDescription("Show the current service selection, resolved OAuth scopes, and credential status"),
	)
	s.AddTool(getConfigTool, common.InstrumentedToolHandler("workspace_get_configuration", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetConfiguration(ctx, sc)
		}))

	return nil
}

func handleGetConfiguration(_ context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var b strings.Builder

	sel, err := sc.Config().Selection()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read service selection: %v", err)), nil
	}

	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("Services:\n")
	for _, name := range names {
		state := "disabled"
		if sel[name] {
			state = "enabled"
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, state)
	}

	required, err := sc.Gate().RequiredScopes()
	if err != nil {
		fmt.Fprintf(&b, "\nScope resolution error: %v\n", err)
	} else {
		b.WriteString("\nRequired OAuth scopes:\n")
		for _, scope := range required.Sorted() {
			fmt.Fprintf(&b, "  %s\n", scope)
		}
	}

	manager := sc.Manager()
	fmt.Fprintf(&b, "\nCredential state: %s\n", manager.State())
	if granted := manager.GrantedScopes(); len(granted) > 0 {
		b.WriteString("Granted OAuth scopes:\n")
		for _, scope := range granted.Sorted() {
			fmt.Fprintf(&b, "  %s\n", scope)
		}
		if required != nil && !required.Subset(granted) {
			b.WriteString("\nNote: the granted scopes no longer cover the enabled services. The next operation will start a new authorization.\n")
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
