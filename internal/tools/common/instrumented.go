package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
)

// Metrics is the subset of the metrics recorder the tool wrappers need.
type Metrics interface {
	RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration)
	RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// ToolHandler is the handler signature the MCP server expects. It is an
// alias so wrapped handlers assign directly to server.ToolHandlerFunc.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with invocation metrics.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", metrics, handler))
func InstrumentedToolHandler(toolName string, metrics Metrics, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if metrics == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		metrics.RecordToolInvocation(ctx, toolName, status, duration)

		return result, err
	}
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but
// also records which Google service and operation the tool exercised.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "gmail", "list", metrics, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, metrics Metrics, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if metrics == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)

		return result, err
	}
}
