package drive

import (
	"time"

	drive "google.golang.org/api/drive/v3"
)

// FileInfo represents metadata about a file or folder in Google Drive.
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	Trashed      bool      `json:"trashed"`
}

// ListOptions contains options for listing files.
type ListOptions struct {
	// Query filters results using Drive's query language, e.g.
	// "name contains 'report'" or "mimeType='application/pdf'".
	Query string

	// MaxResults caps the number of files returned per page.
	MaxResults int

	// PageToken retrieves the next page of an earlier listing.
	PageToken string
}

// UploadOptions contains options for uploading a file.
type UploadOptions struct {
	ParentFolders []string
	Description   string
	MimeType      string
}

// IsFolder reports whether the file is a Drive folder.
func (f *FileInfo) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

func toFileInfo(f *drive.File) *FileInfo {
	if f == nil {
		return nil
	}
	info := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		Trashed:     f.Trashed,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		info.CreatedTime = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedTime = t
	}
	return info
}
