package models

// BoardKind distinguishes the shared pool board from per-member
// personal boards.
type BoardKind string

// Board kinds.
const (
	BoardPool     BoardKind = "pool"
	BoardPersonal BoardKind = "personal"
)

// Column is one column of a kanban board. Columns are stored inline on
// the board row as a JSON array, in display order.
type Column struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	IsDone bool   `json:"isDone"`
}

// Board is a kanban board. A personal board carries the member it
// belongs to; the pool board has an empty Member.
type Board struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       BoardKind `json:"kind"`
	Member     string    `json:"member,omitempty"`
	Columns    []Column  `json:"columns"`
	CreatedAt  int64     `json:"createdAt"`
	ModifiedAt int64     `json:"modifiedAt"`
}

// DoneColumn returns the board's completion column, or nil.
func (b *Board) DoneColumn() *Column {
	for i := range b.Columns {
		if b.Columns[i].IsDone {
			return &b.Columns[i]
		}
	}
	return nil
}

// ColumnByID returns the column with the given id, or nil.
func (b *Board) ColumnByID(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// ColumnByName returns the first column with the given name, or nil.
// Used when projecting a card from its home board onto another board.
func (b *Board) ColumnByName(name string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}
	return nil
}

// Card is a kanban card. BoardID and ColumnID identify the card's home
// board; routing onto personal boards is a projection computed by the
// workspace, never stored.
type Card struct {
	ID          string   `json:"id"`
	BoardID     string   `json:"boardId"`
	ColumnID    string   `json:"columnId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	NotePath    string   `json:"notePath,omitempty"`
	Position    int      `json:"position"`
	Assignees   []string `json:"assignees,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     int64    `json:"dueDate,omitempty"`
	ClosedAt    int64    `json:"closedAt,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// AssignedTo reports whether the card is assigned to the given member.
func (c *Card) AssignedTo(member string) bool {
	for _, a := range c.Assignees {
		if a == member {
			return true
		}
	}
	return false
}
