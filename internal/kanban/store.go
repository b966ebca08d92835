// Package kanban is the front-end's card ownership and routing model.
//
// Cards live canonically on the board they were created on; the shared
// pool board is where most work enters. Assigning a card to a member
// projects it onto that member's personal board. The projection is
// computed here on every read and never stored: the backend only ever
// sees a card's home board.
package kanban

import (
	"context"
	"sync"

	"github.com/aldric/tavle/internal/backend"
	"github.com/aldric/tavle/internal/models"
)

// Store is the client-side kanban state, refreshed from the backend.
// Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	svc    backend.Service
	boards map[string]models.Board
	cards  []models.Card
}

// NewStore creates a store over the given backend.
func NewStore(svc backend.Service) *Store {
	return &Store{svc: svc, boards: make(map[string]models.Board)}
}

// Refresh reloads boards and cards from the backend.
func (s *Store) Refresh(ctx context.Context) error {
	boards, err := s.svc.ListBoards(ctx)
	if err != nil {
		return err
	}
	cards, err := s.svc.ListAllCards(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = make(map[string]models.Board, len(boards))
	for _, b := range boards {
		s.boards[b.ID] = b
	}
	s.cards = cards
	return nil
}

// Boards returns all known boards.
func (s *Store) Boards() []models.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Board, 0, len(s.boards))
	for _, b := range s.boards {
		out = append(out, b)
	}
	return out
}

// Board returns one board by id.
func (s *Store) Board(id string) (models.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	return b, ok
}

// VisibleCards returns the cards a board displays. For a pool board
// that is exactly the cards homed on it. For a personal board it is
// the cards homed on it plus every pool card assigned to the board's
// member, projected onto the personal board's columns by column name.
// An assigned card whose home column has no same-named column on the
// personal board is not shown there.
func (s *Store) VisibleCards(boardID string) []models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.boards[boardID]
	if !ok {
		return nil
	}

	var out []models.Card
	for _, c := range s.cards {
		if c.BoardID == boardID {
			out = append(out, c)
			continue
		}
		if board.Kind != models.BoardPersonal {
			continue
		}
		home, ok := s.boards[c.BoardID]
		if !ok || home.Kind != models.BoardPool || !c.AssignedTo(board.Member) {
			continue
		}
		homeCol := home.ColumnByID(c.ColumnID)
		if homeCol == nil {
			continue
		}
		local := board.ColumnByName(homeCol.Name)
		if local == nil {
			continue
		}
		projected := c
		projected.ColumnID = local.ID
		out = append(out, projected)
	}
	return out
}

// Assign adds a member to a card's assignees, routing it onto their
// personal board. A no-op when already assigned.
func (s *Store) Assign(ctx context.Context, cardID, member string) error {
	s.mu.Lock()
	var card *models.Card
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			card = &s.cards[i]
			break
		}
	}
	if card == nil || card.AssignedTo(member) {
		s.mu.Unlock()
		return nil
	}
	updated := *card
	updated.Assignees = append(append([]string(nil), card.Assignees...), member)
	s.mu.Unlock()

	if _, err := s.svc.UpdateCard(ctx, updated); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Unassign removes a member from a card's assignees.
func (s *Store) Unassign(ctx context.Context, cardID, member string) error {
	s.mu.Lock()
	var updated *models.Card
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			c := s.cards[i]
			var rest []string
			for _, a := range c.Assignees {
				if a != member {
					rest = append(rest, a)
				}
			}
			if len(rest) == len(c.Assignees) {
				break
			}
			c.Assignees = rest
			updated = &c
			break
		}
	}
	s.mu.Unlock()

	if updated == nil {
		return nil
	}
	if _, err := s.svc.UpdateCard(ctx, *updated); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// MoveCard moves a card as displayed on viewBoardID. When the view is
// the card's home board the move is direct. When the view is a
// personal-board projection, the target column is mapped by name back
// to the card's home board, so dragging a card to "Done" on a personal
// board completes it on the pool board too.
func (s *Store) MoveCard(ctx context.Context, viewBoardID, cardID, toColumnID string, position int) error {
	s.mu.Lock()
	view, okView := s.boards[viewBoardID]
	var card *models.Card
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			card = &s.cards[i]
			break
		}
	}
	if !okView || card == nil {
		s.mu.Unlock()
		return nil
	}

	targetColumnID := toColumnID
	if card.BoardID != viewBoardID {
		// Projected card: route the move back to the home board.
		home, ok := s.boards[card.BoardID]
		if !ok {
			s.mu.Unlock()
			return nil
		}
		viewCol := view.ColumnByID(toColumnID)
		if viewCol == nil {
			s.mu.Unlock()
			return nil
		}
		homeCol := home.ColumnByName(viewCol.Name)
		if homeCol == nil {
			s.mu.Unlock()
			return nil
		}
		targetColumnID = homeCol.ID
	}
	s.mu.Unlock()

	if _, err := s.svc.MoveCard(ctx, cardID, targetColumnID, position); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// CreateCard creates a card homed on boardID and refreshes.
func (s *Store) CreateCard(ctx context.Context, card models.Card) (*models.Card, error) {
	created, err := s.svc.AddCard(ctx, card)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
