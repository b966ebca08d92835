package api

import "github.com/aldric/tavle/internal/models"

// WriteNoteRequest is the body for PUT /api/notes/*. CreateIfMissing
// lets a save create the file instead of failing with 404.
type WriteNoteRequest struct {
	Content         string `json:"content"`
	CreateIfMissing bool   `json:"createIfMissing,omitempty"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.NoteMetadata `json:"notes"`
	Total int                   `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// CreateBoardRequest is the body for POST /api/kanban/boards.
type CreateBoardRequest struct {
	Name    string           `json:"name"`
	Kind    models.BoardKind `json:"kind,omitempty"`
	Member  string           `json:"member,omitempty"`
	Columns []models.Column  `json:"columns,omitempty"`
}

// AddColumnRequest is the body for POST /api/kanban/boards/{id}/columns.
type AddColumnRequest struct {
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	IsDone bool   `json:"isDone,omitempty"`
}

// CreateCardRequest is the body for POST /api/kanban/boards/{id}/cards.
type CreateCardRequest struct {
	ColumnID    string   `json:"columnId,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	NotePath    string   `json:"notePath,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     int64    `json:"dueDate,omitempty"`
}

// UpdateCardRequest is the body for PUT /api/kanban/cards/{id}.
type UpdateCardRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	NotePath    string   `json:"notePath,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     int64    `json:"dueDate,omitempty"`
}

// MoveCardRequest is the body for POST /api/kanban/cards/{id}/move.
// Position -1 appends at the tail of the target column.
type MoveCardRequest struct {
	ColumnID string `json:"columnId"`
	Position int    `json:"position"`
}

// BoardListResponse wraps board listings.
type BoardListResponse struct {
	Boards []models.Board `json:"boards"`
}

// CardListResponse wraps card listings.
type CardListResponse struct {
	Cards []models.Card `json:"cards"`
}
