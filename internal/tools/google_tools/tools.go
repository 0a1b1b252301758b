package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterGoogleTools registers the OAuth consent tools with the MCP server.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize access to the enabled Google services"),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google services authentication"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	required, err := sc.Gate().RequiredScopes()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve required scopes: %v", err)), nil
	}

	authURL := google.AuthURL(sc.Credentials(), required)

	result := fmt.Sprintf(`To authorize access to the enabled Google services:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant the requested access
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code to complete authentication`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	authCode, ok := args["authCode"].(string)
	if !ok || authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	required, err := sc.Gate().RequiredScopes()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve required scopes: %v", err)), nil
	}

	cred, err := google.Exchange(ctx, sc.Credentials(), required, authCode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to exchange authorization code: %v", err)), nil
	}

	if err := sc.Manager().Grant(cred); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to install credential: %v", err)), nil
	}

	return mcp.NewToolResultText("Authorization successful. All enabled Google service tools are now available."), nil
}
