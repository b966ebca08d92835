// Package models defines the domain types shared by the backend service
// and the workspace front-end core.
package models

// Note is the full representation of a note as returned by the backend.
type Note struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ModifiedAt int64  `json:"modified_at"`
	CreatedAt  int64  `json:"created_at"`
}

// NoteMetadata is the lightweight note representation used in listings
// and returned by write operations.
type NoteMetadata struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	ModifiedAt int64  `json:"modified_at"`
	CreatedAt  int64  `json:"created_at"`
}

// SearchResult is a single full-text search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
