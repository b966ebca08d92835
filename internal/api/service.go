package api

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/checksum"
	"github.com/aldric/tavle/internal/index"
	"github.com/aldric/tavle/internal/models"
	"github.com/aldric/tavle/internal/parser"
	"github.com/aldric/tavle/internal/sse"
	"github.com/aldric/tavle/internal/storage"
)

// Service coordinates storage, index, and event broadcast for the API
// layer.
type Service struct {
	store  storage.Provider
	db     *index.DB
	broker *sse.Broker
	now    func() time.Time
}

// NewService creates an API service. broker may be nil.
func NewService(store storage.Provider, db *index.DB, broker *sse.Broker) *Service {
	return &Service{store: store, db: db, broker: broker, now: time.Now}
}

// GetNote reads a note from storage and returns the full wire shape.
func (s *Service) GetNote(path string) (*models.Note, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	var created, modified int64
	if row, err := s.db.GetNote(path); err == nil {
		created, modified = row.CreatedAt, row.ModifiedAt
	} else if info, err := s.store.Stat(path); err == nil {
		created, modified = info.CreatedAt.Unix(), info.ModifiedAt.Unix()
	}
	return &models.Note{
		ID:         checksum.NoteID(path),
		Path:       path,
		Title:      parser.TitleFor(path, data),
		Content:    string(data),
		CreatedAt:  created,
		ModifiedAt: modified,
	}, nil
}

// WriteNote writes note content. When the note does not exist it is
// created only if createIfMissing is set; otherwise apperr.ErrNotFound.
func (s *Service) WriteNote(path string, content []byte, createIfMissing bool) (*models.NoteMetadata, error) {
	_, statErr := s.store.Stat(path)
	exists := statErr == nil
	if !exists && !createIfMissing {
		return nil, apperr.ErrNotFound
	}

	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, content); err != nil {
		return nil, err
	}
	if s.broker != nil {
		kind := "updated"
		if !exists {
			kind = "created"
		}
		s.broker.PublishNote(kind, path)
	}

	row, err := s.db.GetNote(path)
	if err != nil {
		return nil, err
	}
	return &models.NoteMetadata{
		ID:         checksum.NoteID(path),
		Path:       path,
		Title:      row.Title,
		CreatedAt:  row.CreatedAt,
		ModifiedAt: row.ModifiedAt,
	}, nil
}

// DeleteNote removes a note from storage and the index.
func (s *Service) DeleteNote(path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if err := s.db.DeleteNote(path); err != nil {
		return err
	}
	if s.broker != nil {
		s.broker.PublishNote("deleted", path)
	}
	return nil
}

// ListNotes returns paginated note metadata with optional tag filter.
func (s *Service) ListNotes(limit, offset int, tag string) ([]models.NoteMetadata, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.NoteMetadata, len(rows))
	for i, r := range rows {
		items[i] = models.NoteMetadata{
			ID:         checksum.NoteID(r.Path),
			Path:       r.Path,
			Title:      r.Title,
			CreatedAt:  r.CreatedAt,
			ModifiedAt: r.ModifiedAt,
		}
	}
	return items, total, nil
}

// Search delegates to the index.
func (s *Service) Search(query string, limit int) ([]models.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns the paths of notes linking to target.
func (s *Service) Backlinks(target string) ([]string, error) {
	return s.db.Backlinks(target)
}

func (s *Service) indexFile(path string, data []byte) error {
	now := s.now().Unix()
	info, err := s.store.Stat(path)
	created := now
	if err == nil {
		created = info.CreatedAt.Unix()
	}
	doc := parser.Parse(data)
	title := doc.Title
	if title == "" {
		title = parser.TitleFor(path, data)
	}
	return s.db.UpsertNote(index.NoteRow{
		Path:       path,
		Title:      title,
		Checksum:   checksum.Sum(data),
		Tags:       doc.Tags,
		CreatedAt:  created,
		ModifiedAt: now,
	}, doc.Body, doc.Links)
}

// CreateBoard validates and stores a new board. Personal boards require
// a member; the columns default to To Do / In Progress / Done when none
// are given.
func (s *Service) CreateBoard(name string, kind models.BoardKind, member string, columns []models.Column) (*models.Board, error) {
	if kind == "" {
		kind = models.BoardPool
	}
	if err := validation.Validate(string(kind), validation.In(string(models.BoardPool), string(models.BoardPersonal))); err != nil {
		return nil, fmt.Errorf("kind: %w", err)
	}
	if err := validation.Validate(name, validation.Required, validation.Length(1, 200)); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if kind == models.BoardPersonal {
		if err := validation.Validate(member, validation.Required); err != nil {
			return nil, fmt.Errorf("member: %w", err)
		}
	}

	if len(columns) == 0 {
		columns = defaultColumns()
	}
	for i := range columns {
		if columns[i].ID == "" {
			columns[i].ID = models.NewID()
		}
	}

	now := s.now().Unix()
	b := models.Board{
		ID:         models.NewID(),
		Name:       name,
		Kind:       kind,
		Member:     member,
		Columns:    columns,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.db.InsertBoard(b); err != nil {
		return nil, err
	}
	s.publishKanban(b.ID)
	return &b, nil
}

// GetBoard returns one board.
func (s *Service) GetBoard(id string) (*models.Board, error) {
	return s.db.GetBoard(id)
}

// ListBoards returns all boards.
func (s *Service) ListBoards() ([]models.Board, error) {
	return s.db.ListBoards()
}

// AddColumn appends a column to a board.
func (s *Service) AddColumn(boardID string, col models.Column) (*models.Board, error) {
	if err := validation.Validate(col.Name, validation.Required, validation.Length(1, 120)); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	b, err := s.db.GetBoard(boardID)
	if err != nil {
		return nil, err
	}
	if col.ID == "" {
		col.ID = models.NewID()
	}
	b.Columns = append(b.Columns, col)
	b.ModifiedAt = s.now().Unix()
	if err := s.db.UpdateBoardColumns(boardID, b.Columns, b.ModifiedAt); err != nil {
		return nil, err
	}
	s.publishKanban(boardID)
	return b, nil
}

// DeleteBoard removes a board and its cards.
func (s *Service) DeleteBoard(id string) error {
	if err := s.db.DeleteBoard(id); err != nil {
		return err
	}
	s.publishKanban(id)
	return nil
}

// AddCard creates a card on a board. An empty columnID targets the
// board's first column; the card is appended at the column's tail.
func (s *Service) AddCard(c models.Card) (*models.Card, error) {
	if err := validation.Validate(c.Title, validation.Required, validation.Length(1, 300)); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	b, err := s.db.GetBoard(c.BoardID)
	if err != nil {
		return nil, err
	}
	if c.ColumnID == "" {
		if len(b.Columns) == 0 {
			return nil, fmt.Errorf("board %s has no columns", b.ID)
		}
		c.ColumnID = b.Columns[0].ID
	} else if b.ColumnByID(c.ColumnID) == nil {
		return nil, apperr.ErrNotFound
	}

	max, err := s.db.MaxPosition(c.ColumnID)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	c.ID = models.NewID()
	c.Position = max + 1
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ClosedAt = 0
	if col := b.ColumnByID(c.ColumnID); col != nil && col.IsDone {
		c.ClosedAt = now
	}
	if err := s.db.InsertCard(c); err != nil {
		return nil, err
	}
	s.publishKanban(c.BoardID)
	return &c, nil
}

// GetCard returns one card.
func (s *Service) GetCard(id string) (*models.Card, error) {
	return s.db.GetCard(id)
}

// ListCards returns a board's cards.
func (s *Service) ListCards(boardID string) ([]models.Card, error) {
	return s.db.ListCards(boardID)
}

// ListAllCards returns every card across all boards.
func (s *Service) ListAllCards() ([]models.Card, error) {
	return s.db.ListAllCards()
}

// UpdateCard replaces a card's mutable fields.
func (s *Service) UpdateCard(c models.Card) (*models.Card, error) {
	if err := validation.Validate(c.Title, validation.Required, validation.Length(1, 300)); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	existing, err := s.db.GetCard(c.ID)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().Unix()
	if err := s.db.UpdateCard(c); err != nil {
		return nil, err
	}
	s.publishKanban(existing.BoardID)
	return s.db.GetCard(c.ID)
}

// MoveCard relocates a card within its home board. Moving into the
// done column stamps closedAt; moving out clears it.
func (s *Service) MoveCard(cardID, toColumnID string, position int) (*models.Card, error) {
	card, err := s.db.GetCard(cardID)
	if err != nil {
		return nil, err
	}
	b, err := s.db.GetBoard(card.BoardID)
	if err != nil {
		return nil, err
	}
	from := b.ColumnByID(card.ColumnID)
	to := b.ColumnByID(toColumnID)
	if to == nil {
		return nil, apperr.ErrNotFound
	}

	op := index.ClosedAtKeep
	switch {
	case to.IsDone && (from == nil || !from.IsDone):
		op = index.ClosedAtSet
	case !to.IsDone && from != nil && from.IsDone:
		op = index.ClosedAtClear
	}

	if position < 0 {
		max, err := s.db.MaxPosition(toColumnID)
		if err != nil {
			return nil, err
		}
		position = max + 1
	}
	if err := s.db.MoveCard(cardID, toColumnID, position, s.now().Unix(), op); err != nil {
		return nil, err
	}
	s.publishKanban(card.BoardID)
	return s.db.GetCard(cardID)
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(id string) error {
	card, err := s.db.GetCard(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.db.DeleteCard(id); err != nil {
		return err
	}
	s.publishKanban(card.BoardID)
	return nil
}

func (s *Service) publishKanban(boardID string) {
	if s.broker != nil {
		s.broker.PublishKanban(boardID)
	}
}

func defaultColumns() []models.Column {
	return []models.Column{
		{ID: models.NewID(), Name: "To Do"},
		{ID: models.NewID(), Name: "In Progress"},
		{ID: models.NewID(), Name: "Done", IsDone: true},
	}
}
