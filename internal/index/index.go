// Package index provides the SQLite-backed note and kanban index with
// optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aldric/tavle/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	body        TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL DEFAULT 0,
	modified_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);

CREATE TABLE IF NOT EXISTS kanban_boards (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT 'pool',
	member      TEXT NOT NULL DEFAULT '',
	columns     TEXT NOT NULL DEFAULT '[]',
	created_at  INTEGER NOT NULL DEFAULT 0,
	modified_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS kanban_cards (
	id          TEXT PRIMARY KEY,
	board_id    TEXT NOT NULL,
	column_id   TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	note_path   TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL DEFAULT 0,
	assignees   TEXT NOT NULL DEFAULT '[]',
	priority    TEXT NOT NULL DEFAULT '',
	due_date    INTEGER NOT NULL DEFAULT 0,
	closed_at   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cards_board ON kanban_cards(board_id);
CREATE INDEX IF NOT EXISTS idx_cards_column ON kanban_cards(column_id);
`

// NoteIndex is the note-side interface consumers should depend on.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, links []string) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int, tag string) ([]NoteRow, int, error)
	AllChecksums() (map[string]string, error)
	Backlinks(target string) ([]string, error)
	Search(query string, limit int) ([]models.SearchResult, error)
}

// KanbanIndex is the kanban-side interface.
type KanbanIndex interface {
	InsertBoard(b models.Board) error
	GetBoard(id string) (*models.Board, error)
	ListBoards() ([]models.Board, error)
	UpdateBoardColumns(id string, cols []models.Column, modifiedAt int64) error
	DeleteBoard(id string) error
	InsertCard(c models.Card) error
	GetCard(id string) (*models.Card, error)
	ListCards(boardID string) ([]models.Card, error)
	ListAllCards() ([]models.Card, error)
	UpdateCard(c models.Card) error
	MoveCard(id, toColumnID string, position int, updatedAt int64, closed ClosedAtOp) error
	DeleteCard(id string) error
	MaxPosition(columnID string) (int, error)
}

var (
	_ NoteIndex   = (*DB)(nil)
	_ KanbanIndex = (*DB)(nil)
)

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
