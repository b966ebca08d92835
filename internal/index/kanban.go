package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/models"
)

// ClosedAtOp says what a card move should do with the closed_at stamp.
type ClosedAtOp int

const (
	// ClosedAtKeep leaves closed_at untouched.
	ClosedAtKeep ClosedAtOp = iota
	// ClosedAtSet stamps closed_at with the move time (card entered a
	// done column).
	ClosedAtSet
	// ClosedAtClear resets closed_at (card left a done column).
	ClosedAtClear
)

// InsertBoard stores a new board.
func (db *DB) InsertBoard(b models.Board) error {
	colsJSON, err := json.Marshal(b.Columns)
	if err != nil {
		return fmt.Errorf("index: marshal columns: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO kanban_boards (id, name, kind, member, columns, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, string(b.Kind), b.Member, string(colsJSON), b.CreatedAt, b.ModifiedAt)
	if err != nil {
		return fmt.Errorf("index: insert board: %w", err)
	}
	return nil
}

// GetBoard returns a board by id, or apperr.ErrNotFound.
func (db *DB) GetBoard(id string) (*models.Board, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, kind, member, columns, created_at, modified_at
		FROM kanban_boards WHERE id = ?
	`, id)
	b, err := scanBoard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get board: %w", err)
	}
	return b, nil
}

// ListBoards returns all boards, most recently modified first.
func (db *DB) ListBoards() ([]models.Board, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, kind, member, columns, created_at, modified_at
		FROM kanban_boards ORDER BY modified_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list boards: %w", err)
	}
	defer rows.Close()

	var out []models.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateBoardColumns replaces a board's column set.
func (db *DB) UpdateBoardColumns(id string, cols []models.Column, modifiedAt int64) error {
	colsJSON, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("index: marshal columns: %w", err)
	}
	res, err := db.conn.Exec(`
		UPDATE kanban_boards SET columns = ?, modified_at = ? WHERE id = ?
	`, string(colsJSON), modifiedAt, id)
	if err != nil {
		return fmt.Errorf("index: update board columns: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteBoard removes a board and every card homed on it.
func (db *DB) DeleteBoard(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM kanban_cards WHERE board_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM kanban_boards WHERE id = ?`, id)

	return tx.Commit()
}

// InsertCard stores a new card.
func (db *DB) InsertCard(c models.Card) error {
	asgJSON, _ := json.Marshal(c.Assignees)
	_, err := db.conn.Exec(`
		INSERT INTO kanban_cards
			(id, board_id, column_id, title, description, note_path, position,
			 assignees, priority, due_date, closed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.BoardID, c.ColumnID, c.Title, c.Description, c.NotePath, c.Position,
		string(asgJSON), c.Priority, c.DueDate, c.ClosedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: insert card: %w", err)
	}
	return nil
}

// GetCard returns a card by id, or apperr.ErrNotFound.
func (db *DB) GetCard(id string) (*models.Card, error) {
	row := db.conn.QueryRow(cardSelect+` WHERE id = ?`, id)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get card: %w", err)
	}
	return c, nil
}

// ListCards returns the cards homed on a board, in column position order.
func (db *DB) ListCards(boardID string) ([]models.Card, error) {
	rows, err := db.conn.Query(cardSelect+` WHERE board_id = ? ORDER BY position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("index: list cards: %w", err)
	}
	return collectCards(rows)
}

// ListAllCards returns every card across all boards.
func (db *DB) ListAllCards() ([]models.Card, error) {
	rows, err := db.conn.Query(cardSelect + ` ORDER BY board_id, position`)
	if err != nil {
		return nil, fmt.Errorf("index: list all cards: %w", err)
	}
	return collectCards(rows)
}

// UpdateCard replaces a card's mutable fields.
func (db *DB) UpdateCard(c models.Card) error {
	asgJSON, _ := json.Marshal(c.Assignees)
	res, err := db.conn.Exec(`
		UPDATE kanban_cards SET
			title = ?, description = ?, note_path = ?, assignees = ?,
			priority = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, c.Title, c.Description, c.NotePath, string(asgJSON),
		c.Priority, c.DueDate, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("index: update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MoveCard relocates a card to a column and position, adjusting
// closed_at according to op.
func (db *DB) MoveCard(id, toColumnID string, position int, updatedAt int64, closed ClosedAtOp) error {
	var res sql.Result
	var err error
	switch closed {
	case ClosedAtSet:
		res, err = db.conn.Exec(`
			UPDATE kanban_cards SET column_id = ?, position = ?, updated_at = ?, closed_at = ?
			WHERE id = ?
		`, toColumnID, position, updatedAt, updatedAt, id)
	case ClosedAtClear:
		res, err = db.conn.Exec(`
			UPDATE kanban_cards SET column_id = ?, position = ?, updated_at = ?, closed_at = 0
			WHERE id = ?
		`, toColumnID, position, updatedAt, id)
	default:
		res, err = db.conn.Exec(`
			UPDATE kanban_cards SET column_id = ?, position = ?, updated_at = ?
			WHERE id = ?
		`, toColumnID, position, updatedAt, id)
	}
	if err != nil {
		return fmt.Errorf("index: move card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteCard removes a card.
func (db *DB) DeleteCard(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM kanban_cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete card: %w", err)
	}
	return nil
}

// MaxPosition returns the highest card position in a column, or -1 when
// the column is empty.
func (db *DB) MaxPosition(columnID string) (int, error) {
	var pos int
	err := db.conn.QueryRow(`
		SELECT COALESCE(MAX(position), -1) FROM kanban_cards WHERE column_id = ?
	`, columnID).Scan(&pos)
	if err != nil {
		return -1, fmt.Errorf("index: max position: %w", err)
	}
	return pos, nil
}

const cardSelect = `
	SELECT id, board_id, column_id, title, description, note_path, position,
	       assignees, priority, due_date, closed_at, created_at, updated_at
	FROM kanban_cards`

func scanBoard(r rowScanner) (*models.Board, error) {
	var b models.Board
	var kind, colsJSON string
	if err := r.Scan(&b.ID, &b.Name, &kind, &b.Member, &colsJSON, &b.CreatedAt, &b.ModifiedAt); err != nil {
		return nil, err
	}
	b.Kind = models.BoardKind(kind)
	_ = json.Unmarshal([]byte(colsJSON), &b.Columns)
	return &b, nil
}

func scanCard(r rowScanner) (*models.Card, error) {
	var c models.Card
	var asgJSON string
	err := r.Scan(&c.ID, &c.BoardID, &c.ColumnID, &c.Title, &c.Description, &c.NotePath,
		&c.Position, &asgJSON, &c.Priority, &c.DueDate, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(asgJSON), &c.Assignees)
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]models.Card, error) {
	defer rows.Close()
	var out []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
