// Package backend defines the narrow interface the workspace core uses
// to talk to the local backend service, plus its HTTP implementation.
// The workspace never touches storage or the index directly.
package backend

import (
	"context"

	"github.com/aldric/tavle/internal/models"
)

// Service is everything the front-end core needs from the backend.
type Service interface {
	ReadNote(ctx context.Context, path string) (*models.Note, error)
	WriteNote(ctx context.Context, path, content string, createIfMissing bool) (*models.NoteMetadata, error)
	DeleteNote(ctx context.Context, path string) error
	ListNotes(ctx context.Context, limit, offset int, tag string) ([]models.NoteMetadata, int, error)
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)

	ListBoards(ctx context.Context) ([]models.Board, error)
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	CreateBoard(ctx context.Context, name string, kind models.BoardKind, member string) (*models.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	AddColumn(ctx context.Context, boardID string, col models.Column) (*models.Board, error)

	ListAllCards(ctx context.Context) ([]models.Card, error)
	AddCard(ctx context.Context, card models.Card) (*models.Card, error)
	UpdateCard(ctx context.Context, card models.Card) (*models.Card, error)
	MoveCard(ctx context.Context, cardID, toColumnID string, position int) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID string) error
}
