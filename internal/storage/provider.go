// Package storage defines the vault file-system abstraction used by the
// backend service.
package storage

import "time"

// FileInfo describes one Markdown file in the vault.
type FileInfo struct {
	Path       string
	Checksum   string
	Size       int64
	ModifiedAt time.Time
	CreatedAt  time.Time
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List walks dir and returns info for every .md file under it.
	List(dir string) ([]FileInfo, error)
	// Stat returns info for a single file.
	Stat(path string) (FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
