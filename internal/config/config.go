// Package config loads the user's service selection from a JSON file.
//
// The file is re-read when its modification time changes, so enabling a
// service between two tool calls takes effect without a restart. A missing
// file falls back to the default selection.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teemow/workspace-mcp/internal/scopes"
)

// fileFormat is the on-disk shape of the services file:
//
//	{
//	  "enabled_services": {
//	    "calendar": true,
//	    "gmail": true
//	  }
//	}
type fileFormat struct {
	EnabledServices map[string]bool `json:"enabled_services"`
}

// File serves the selection from a JSON file, reloading when the file's
// mtime changes.
type File struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	loaded    bool
	modTime   time.Time
	selection scopes.Selection
}

// NewFile creates a selection source for the given path. A nil logger uses
// slog.Default.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Path returns the configuration file path.
func (f *File) Path() string {
	return f.path
}

// Selection returns the current selection, re-reading the file if it
// changed since the last call. A missing file yields DefaultSelection.
func (f *File) Selection() (scopes.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		if !f.loaded {
			f.logger.Debug("no services file, using default selection", slog.String("path", f.path))
			f.selection = DefaultSelection()
			f.loaded = true
			f.modTime = time.Time{}
		}
		return f.selection.Clone(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat services file: %w", err)
	}

	if f.loaded && info.ModTime().Equal(f.modTime) {
		return f.selection.Clone(), nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read services file: %w", err)
	}

	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse services file %s: %w", f.path, err)
	}

	sel := make(scopes.Selection, len(raw.EnabledServices))
	for name, enabled := range raw.EnabledServices {
		sel[name] = enabled
	}

	f.selection = sel
	f.modTime = info.ModTime()
	f.loaded = true
	f.logger.Info("loaded service selection",
		slog.String("path", f.path),
		slog.Any("enabled", sel.Enabled()))
	return f.selection.Clone(), nil
}

// Save writes a selection back to the file, creating the parent directory
// if needed.
func (f *File) Save(sel scopes.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(fileFormat{EnabledServices: sel}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode services file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write services file: %w", err)
	}

	f.loaded = false // force a reload on the next Selection call
	return nil
}

// DefaultSelection mirrors the selection used when no services file
// exists: the common read/write services on, the rest off.
func DefaultSelection() scopes.Selection {
	return scopes.Selection{
		"calendar": true,
		"gmail":    true,
		"docs":     true,
		"drive":    true,
	}
}

// DefaultPath returns the per-user location of the services file, e.g.
// ~/.config/workspace-mcp/services.json on Linux.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "workspace-mcp", "services.json"), nil
}
