package drive_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/drive"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterDriveTools registers all Drive-related tools with the MCP server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listFilesTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List or search files in Google Drive using Drive query syntax"),
		mcp.WithString("query",
			mcp.Description("Drive search query (e.g., \"name contains 'report'\")"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default: 25)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token from a previous listing"),
		),
	)
	s.AddTool(listFilesTool, common.InstrumentedToolHandlerWithService("drive_list_files", "drive", "list_files", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFiles(ctx, request, sc)
		}))

	getFileTool := mcp.NewTool("drive_get_file",
		mcp.WithDescription("Get metadata for a Google Drive file"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
	)
	s.AddTool(getFileTool, common.InstrumentedToolHandlerWithService("drive_get_file", "drive", "get_file", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFile(ctx, request, sc)
		}))

	uploadFileTool := mcp.NewTool("drive_upload_file",
		mcp.WithDescription("Upload text content as a new file in Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File name"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("File content"),
		),
		mcp.WithString("mimeType",
			mcp.Description("MIME type of the content (default: 'text/plain')"),
		),
		mcp.WithString("folderId",
			mcp.Description("Parent folder ID (default: Drive root)"),
		),
	)
	s.AddTool(uploadFileTool, common.InstrumentedToolHandlerWithService("drive_upload_file", "drive", "upload_file", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUploadFile(ctx, request, sc)
		}))

	createFolderTool := mcp.NewTool("drive_create_folder",
		mcp.WithDescription("Create a new folder in Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Folder name"),
		),
		mcp.WithString("parentId",
			mcp.Description("Parent folder ID (default: Drive root)"),
		),
	)
	s.AddTool(createFolderTool, common.InstrumentedToolHandlerWithService("drive_create_folder", "drive", "create_folder", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateFolder(ctx, request, sc)
		}))

	deleteFileTool := mcp.NewTool("drive_delete_file",
		mcp.WithDescription("Permanently delete a file from Google Drive"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file to delete"),
		),
	)
	s.AddTool(deleteFileTool, common.InstrumentedToolHandlerWithService("drive_delete_file", "drive", "delete_file", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteFile(ctx, request, sc)
		}))

	return nil
}

func formatFileInfo(b *strings.Builder, info *drive.FileInfo) {
	kind := "File"
	if info.IsFolder() {
		kind = "Folder"
	}
	fmt.Fprintf(b, "- %s: %s (ID: %s)\n", kind, info.Name, info.ID)
	if !info.IsFolder() {
		fmt.Fprintf(b, "  Type: %s, Size: %d bytes\n", info.MimeType, info.Size)
	}
	if !info.ModifiedTime.IsZero() {
		fmt.Fprintf(b, "  Modified: %s\n", info.ModifiedTime.Format("2006-01-02 15:04:05"))
	}
	if info.WebViewLink != "" {
		fmt.Fprintf(b, "  Link: %s\n", info.WebViewLink)
	}
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	options := drive.ListOptions{MaxResults: 25}
	if query, ok := args["query"].(string); ok {
		options.Query = query
	}
	if maxVal, ok := args["maxResults"].(float64); ok && maxVal > 0 {
		options.MaxResults = int(maxVal)
	}
	if token, ok := args["pageToken"].(string); ok {
		options.PageToken = token
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type listResult struct {
		files     []*drive.FileInfo
		nextToken string
	}
	res, err := common.RetryTransient(ctx, func() (listResult, error) {
		files, nextToken, err := client.ListFiles(ctx, options)
		return listResult{files, nextToken}, err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list files: %v", err)), nil
	}

	if len(res.files) == 0 {
		return mcp.NewToolResultText("No files found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d files:\n\n", len(res.files))
	for _, info := range res.files {
		formatFileInfo(&b, info)
	}
	if res.nextToken != "" {
		fmt.Fprintf(&b, "\nMore results available, pass pageToken: %s\n", res.nextToken)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := common.RetryTransient(ctx, func() (*drive.FileInfo, error) {
		return client.GetFile(ctx, fileID)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get file: %v", err)), nil
	}

	var b strings.Builder
	formatFileInfo(&b, info)
	return mcp.NewToolResultText(b.String()), nil
}

func handleUploadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	options := drive.UploadOptions{MimeType: "text/plain"}
	if mimeType, ok := args["mimeType"].(string); ok && mimeType != "" {
		options.MimeType = mimeType
	}
	if folderID, ok := args["folderId"].(string); ok && folderID != "" {
		options.ParentFolders = []string{folderID}
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := common.RetryTransient(ctx, func() (*drive.FileInfo, error) {
		return client.UploadFile(ctx, name, strings.NewReader(content), options)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to upload file: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("File uploaded: %s (ID: %s)", info.Name, info.ID)), nil
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var parents []string
	if parentID, ok := args["parentId"].(string); ok && parentID != "" {
		parents = []string{parentID}
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := common.RetryTransient(ctx, func() (*drive.FileInfo, error) {
		return client.CreateFolder(ctx, name, parents)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create folder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Folder created: %s (ID: %s)", info.Name, info.ID)), nil
}

func handleDeleteFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := common.RetryTransient(ctx, func() (struct{}, error) {
		return struct{}{}, client.DeleteFile(ctx, fileID)
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete file: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("File %s deleted.", fileID)), nil
}
