package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterGmailTools registers all Gmail-related tools with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("gmail_search_emails",
		mcp.WithDescription("Search Gmail messages using Gmail query syntax (e.g., 'from:alice is:unread')"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default: 25)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithService("gmail_search_emails", "gmail", "search", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEmails(ctx, request, sc)
		}))

	getMessageTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get the full content of a Gmail message"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to retrieve"),
		),
	)
	s.AddTool(getMessageTool, common.InstrumentedToolHandlerWithService("gmail_get_message", "gmail", "get_message", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	sendEmailTool := mcp.NewTool("gmail_send_email",
		mcp.WithDescription("Send an email via Gmail"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient email addresses"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC email addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated BCC email addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body"),
		),
		mcp.WithBoolean("isHtml",
			mcp.Description("Send the body as HTML instead of plain text"),
		),
	)
	s.AddTool(sendEmailTool, common.InstrumentedToolHandlerWithService("gmail_send_email", "gmail", "send", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendEmail(ctx, request, sc)
		}))

	createDraftTool := mcp.NewTool("gmail_create_draft",
		mcp.WithDescription("Create a draft email in Gmail without sending it"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient email addresses"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC email addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body"),
		),
		mcp.WithBoolean("isHtml",
			mcp.Description("Store the body as HTML instead of plain text"),
		),
	)
	s.AddTool(createDraftTool, common.InstrumentedToolHandlerWithService("gmail_create_draft", "gmail", "create_draft", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateDraft(ctx, request, sc)
		}))

	listLabelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List all Gmail labels"),
	)
	s.AddTool(listLabelsTool, common.InstrumentedToolHandlerWithService("gmail_list_labels", "gmail", "list_labels", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, sc)
		}))

	return nil
}

// splitAddresses splits a comma-separated address list and trims
// whitespace around each entry.
func splitAddresses(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	return addrs
}

// messageFromArgs assembles an EmailMessage from tool arguments shared by
// the send and draft tools.
func messageFromArgs(args map[string]interface{}) (*gmail.EmailMessage, error) {
	to, _ := args["to"].(string)
	if len(splitAddresses(to)) == 0 {
		return nil, fmt.Errorf("to is required")
	}
	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	body, ok := args["body"].(string)
	if !ok || body == "" {
		return nil, fmt.Errorf("body is required")
	}

	msg := &gmail.EmailMessage{
		To:      splitAddresses(to),
		Subject: subject,
		Body:    body,
	}
	if cc, ok := args["cc"].(string); ok {
		msg.Cc = splitAddresses(cc)
	}
	if bcc, ok := args["bcc"].(string); ok {
		msg.Bcc = splitAddresses(bcc)
	}
	if isHTML, ok := args["isHtml"].(bool); ok {
		msg.IsHTML = isHTML
	}
	return msg, nil
}

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	var maxResults int64
	if maxVal, ok := args["maxResults"].(float64); ok && maxVal > 0 {
		maxResults = int64(maxVal)
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, err := common.RetryTransient(ctx, func() ([]gmail.MessageSummary, error) {
		return client.Search(query, maxResults)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText("No messages matched the query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages:\n\n", len(messages))
	for _, msg := range messages {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", msg.Subject, msg.ID)
		fmt.Fprintf(&b, "  From: %s\n", msg.From)
		fmt.Fprintf(&b, "  Date: %s\n", msg.Date)
		if msg.Snippet != "" {
			fmt.Fprintf(&b, "  %s\n", msg.Snippet)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := common.RetryTransient(ctx, func() (*gmail.MessageContent, error) {
		return client.GetMessage(messageID)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Date: %s\n\n", msg.Date)
	b.WriteString(msg.Body)
	return mcp.NewToolResultText(b.String()), nil
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	msg, err := messageFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messageID, err := common.RetryTransient(ctx, func() (string, error) {
		return client.SendEmail(msg)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Email sent (message ID: %s).", messageID)), nil
}

func handleCreateDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	msg, err := messageFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draftID, err := common.RetryTransient(ctx, func() (string, error) {
		return client.CreateDraft(msg)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Draft created (draft ID: %s).", draftID)), nil
}

func handleListLabels(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	labels, err := common.RetryTransient(ctx, func() ([]gmail.LabelInfo, error) {
		return client.ListLabels()
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d labels:\n\n", len(labels))
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s (ID: %s, Type: %s)\n", label.Name, label.ID, label.Type)
	}
	return mcp.NewToolResultText(b.String()), nil
}
