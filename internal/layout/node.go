// Package layout implements the pane layout tree: a recursive binary
// split of editor panes. Trees are immutable; every mutation builds a
// new tree that shares untouched subtrees with the old one, so reactive
// consumers can detect change by reference comparison.
package layout

import (
	"github.com/aldric/tavle/internal/models"
)

// Direction is the axis of a split.
type Direction string

// Split directions.
const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// ViewMode is how a pane renders its note.
type ViewMode string

// View modes.
const (
	ModeSource  ViewMode = "source"
	ModePreview ViewMode = "preview"
	ModeSplit   ViewMode = "split"
)

// Ratio bounds. The persisted ratio is a 0-100 percentage of space
// given to a split's first child; values are clamped so neither child
// can be dragged out of existence.
const (
	MinRatio     = 10
	MaxRatio     = 90
	DefaultRatio = 50
)

// Node is a pane tree node: either a *Leaf or a *Split.
type Node interface {
	NodeID() string
	node()
}

// Leaf is a terminal node: one editor surface bound to at most one
// note. Content, Loading, Meta, and History are runtime-only state and
// are never persisted.
type Leaf struct {
	ID           string
	Path         string // vault-relative note path; "" for an empty pane
	Content      string
	SavedContent string
	Mode         ViewMode
	Loading      bool
	Meta         *models.NoteMetadata
	History      History
}

// NewLeaf returns an empty source-mode leaf with a fresh id.
func NewLeaf() *Leaf {
	return &Leaf{
		ID:      models.NewID(),
		Mode:    ModeSource,
		History: NewHistory(),
	}
}

// NodeID implements Node.
func (l *Leaf) NodeID() string { return l.ID }

func (l *Leaf) node() {}

// Dirty reports whether the pane holds unsaved edits.
func (l *Leaf) Dirty() bool { return l.Content != l.SavedContent }

// Split is an internal node dividing space between exactly two ordered
// children. First is the left (horizontal) or top (vertical) child.
type Split struct {
	ID     string
	Dir    Direction
	Ratio  int
	First  Node
	Second Node
}

// NodeID implements Node.
func (s *Split) NodeID() string { return s.ID }

func (s *Split) node() {}

// ClampRatio forces r into [MinRatio, MaxRatio].
func ClampRatio(r int) int {
	if r < MinRatio {
		return MinRatio
	}
	if r > MaxRatio {
		return MaxRatio
	}
	return r
}
