package drive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// FolderMimeType is the MIME type for Google Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

const fileFields = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink, parents, trashed"

// Client wraps the Google Drive API service.
type Client struct {
	service *drive.Service
}

// NewClient creates a Drive client that authenticates every request
// through the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	service, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{service: service}, nil
}

// ListFiles lists files matching the options. Trashed files are excluded
// unless the query says otherwise.
func (c *Client) ListFiles(ctx context.Context, options ListOptions) ([]*FileInfo, string, error) {
	query := "trashed=false"
	if options.Query != "" {
		query = fmt.Sprintf("(%s) and trashed=false", options.Query)
	}

	call := c.service.Files.List().
		Context(ctx).
		Q(query).
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")"))
	if options.MaxResults > 0 {
		call = call.PageSize(int64(options.MaxResults))
	}
	if options.PageToken != "" {
		call = call.PageToken(options.PageToken)
	}

	fileList, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]*FileInfo, len(fileList.Files))
	for i, f := range fileList.Files {
		files[i] = toFileInfo(f)
	}
	return files, fileList.NextPageToken, nil
}

// GetFile retrieves metadata for a specific file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	file, err := c.service.Files.Get(fileID).
		Context(ctx).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return toFileInfo(file), nil
}

// UploadFile uploads content as a new file.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader, options UploadOptions) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if content == nil {
		return nil, fmt.Errorf("file content is required")
	}

	file := &drive.File{
		Name:        name,
		Parents:     options.ParentFolders,
		Description: options.Description,
		MimeType:    options.MimeType,
	}

	driveFile, err := c.service.Files.Create(file).
		Context(ctx).
		Media(content, googleapi.ContentType(options.MimeType)).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	return toFileInfo(driveFile), nil
}

// CreateFolder creates a new folder.
func (c *Client) CreateFolder(ctx context.Context, name string, parentFolders []string) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	file := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  parentFolders,
	}

	driveFile, err := c.service.Files.Create(file).
		Context(ctx).
		Fields(fileFields).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return toFileInfo(driveFile), nil
}

// DeleteFile permanently deletes a file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("fileID is required")
	}
	if err := c.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}
