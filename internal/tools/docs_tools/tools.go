package docs_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterDocsTools registers all Google Docs tools with the MCP server.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createDocumentTool := mcp.NewTool("docs_create_document",
		mcp.WithDescription("Create a new Google Doc with a title and optional initial content"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Document title"),
		),
		mcp.WithString("content",
			mcp.Description("Initial document content"),
		),
	)
	s.AddTool(createDocumentTool, common.InstrumentedToolHandlerWithService("docs_create_document", "docs", "create", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateDocument(ctx, request, sc)
		}))

	updateDocumentTool := mcp.NewTool("docs_update_document",
		mcp.WithDescription("Append content to an existing Google Doc"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the document to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Content to append to the document"),
		),
	)
	s.AddTool(updateDocumentTool, common.InstrumentedToolHandlerWithService("docs_update_document", "docs", "update", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateDocument(ctx, request, sc)
		}))

	getDocumentTool := mcp.NewTool("docs_get_document",
		mcp.WithDescription("Read a Google Doc as Markdown or plain text"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the document to read"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'text'"),
		),
	)
	s.AddTool(getDocumentTool, common.InstrumentedToolHandlerWithService("docs_get_document", "docs", "get", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetDocument(ctx, request, sc)
		}))

	return nil
}

func handleCreateDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	content, _ := args["content"].(string)

	client, err := sc.DocsClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	documentID, err := common.RetryTransient(ctx, func() (string, error) {
		return client.CreateDocument(title, content)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create document: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Document created: %s (ID: %s)\nURL: https://docs.google.com/document/d/%s/edit", title, documentID, documentID)), nil
}

func handleUpdateDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	client, err := sc.DocsClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := common.RetryTransient(ctx, func() (struct{}, error) {
		return struct{}{}, client.AppendText(documentID, content)
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update document: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Document %s updated.", documentID)), nil
}

func handleGetDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	format := "markdown"
	if formatVal, ok := args["format"].(string); ok && formatVal != "" {
		format = formatVal
	}

	client, err := sc.DocsClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var content string
	switch format {
	case "markdown":
		content, err = common.RetryTransient(ctx, func() (string, error) {
			return client.GetDocumentAsMarkdown(documentID)
		})
	case "text":
		content, err = common.RetryTransient(ctx, func() (string, error) {
			return client.GetDocumentAsPlainText(documentID)
		})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q, use 'markdown' or 'text'", format)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read document: %v", err)), nil
	}

	return mcp.NewToolResultText(content), nil
}
