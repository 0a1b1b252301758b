package docs

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Docs service plus the Drive service for file
// metadata.
type Client struct {
	docsService  *docs.Service
	driveService *drive.Service
}

// NewClient creates a Docs client that authenticates every request
// through the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	docsService, err := docs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}
	driveService, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{docsService: docsService, driveService: driveService}, nil
}

// CreateDocument creates a new document with the given title and optional
// initial body text, and returns its ID.
func (c *Client) CreateDocument(title, body string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title is required")
	}

	doc, err := c.docsService.Documents.Create(&docs.Document{Title: title}).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	if body != "" {
		if err := c.AppendText(doc.DocumentId, body); err != nil {
			return doc.DocumentId, err
		}
	}
	return doc.DocumentId, nil
}

// AppendText appends text at the end of a document.
func (c *Client) AppendText(documentID, text string) error {
	if documentID == "" {
		return fmt.Errorf("documentID is required")
	}
	if text == "" {
		return nil
	}

	_, err := c.docsService.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Text: text,
				EndOfSegmentLocation: &docs.EndOfSegmentLocation{
					SegmentId: "",
				},
			},
		}},
	}).Do()
	if err != nil {
		return fmt.Errorf("failed to append text to document %s: %w", documentID, err)
	}
	return nil
}

// GetDocument retrieves a document's content by ID.
func (c *Client) GetDocument(documentID string) (*docs.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("documentID is required")
	}

	doc, err := c.docsService.Documents.Get(documentID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}
	return doc, nil
}

// GetDocumentAsMarkdown converts a document to Markdown.
func (c *Client) GetDocumentAsMarkdown(documentID string) (string, error) {
	doc, err := c.GetDocument(documentID)
	if err != nil {
		return "", err
	}
	return DocumentToMarkdown(doc), nil
}

// GetDocumentAsPlainText extracts plain text from a document.
func (c *Client) GetDocumentAsPlainText(documentID string) (string, error) {
	doc, err := c.GetDocument(documentID)
	if err != nil {
		return "", err
	}
	return DocumentToPlainText(doc), nil
}

// FileMetadata describes a Drive file.
type FileMetadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	Size         int64  `json:"size,omitempty"`
}

// GetFileMetadata retrieves metadata for a Drive file.
func (c *Client) GetFileMetadata(fileID string) (*FileMetadata, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	file, err := c.driveService.Files.Get(fileID).
		Fields("id, name, mimeType, createdTime, modifiedTime, size").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file metadata %s: %w", fileID, err)
	}

	return &FileMetadata{
		ID:           file.Id,
		Name:         file.Name,
		MimeType:     file.MimeType,
		CreatedTime:  file.CreatedTime,
		ModifiedTime: file.ModifiedTime,
		Size:         file.Size,
	}, nil
}
