package domain

import (
	"fmt"
	"time"
)

// EntryType matches the type column of the files table.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// StorageEntry is a file explorer row as the storage backend returns it.
type StorageEntry struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Type       EntryType `json:"type"`
	Content    string    `json:"content,omitempty"`
	ParentPath string    `json:"parent_path"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e StorageEntry) IsDir() bool {
	return e.Type == EntryDir
}

// Validate checks the fields every backend requires.
func (e StorageEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry name is required")
	}
	if e.Type != EntryFile && e.Type != EntryDir {
		return fmt.Errorf("entry type must be file|dir, got %q", e.Type)
	}
	if e.ParentPath == "" || e.Path == "" {
		return fmt.Errorf("entry %s: parent_path and path are required", e.Name)
	}
	return nil
}

// NewStorageEntry derives ParentPath and Path from a parent directory and name.
func NewStorageEntry(parent, name string, typ EntryType, content string) StorageEntry {
	if parent == "" {
		parent = HomePath
	}
	path := parent + "/" + name
	if parent == "/" {
		path = "/" + name
	}
	return StorageEntry{
		Name:       name,
		Type:       typ,
		Content:    content,
		ParentPath: parent,
		Path:       path,
	}
}
