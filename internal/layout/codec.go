package layout

import "github.com/aldric/tavle/internal/models"

// Persisted layout shapes. Only structure, note bindings, view modes,
// and split geometry survive a restart; content, history, and node ids
// are rebuilt on restore.

// Node type tags.
const (
	typeLeaf  = "leaf"
	typeSplit = "split"
)

// PersistedNode is the serialized form of a tree node.
type PersistedNode struct {
	Type      string          `json:"type"`
	NotePath  string          `json:"notePath,omitempty"`
	ViewMode  string          `json:"viewMode,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Ratio     int             `json:"ratio,omitempty"`
	Children  []PersistedNode `json:"children,omitempty"`
}

// PersistedLayout is one tab's saved layout. The active pane is
// recorded as its position in Leaves order rather than by id, because
// ids do not survive a restart.
type PersistedLayout struct {
	Root       PersistedNode `json:"root"`
	ActivePane int           `json:"activePaneIndex"`
}

// PersistedTabs is the full saved workspace: one layout per tab plus
// the tab that was current.
type PersistedTabs struct {
	CurrentTabID string                     `json:"currentTabId"`
	Layouts      map[string]PersistedLayout `json:"layouts"`
}

// Encode serializes a tree together with its active pane, translating
// the active pane id into a positional index. An id that names no leaf
// encodes as index 0.
func Encode(tree Node, activeID string) PersistedLayout {
	active := 0
	for i, l := range Leaves(tree) {
		if l.ID == activeID {
			active = i
			break
		}
	}
	return PersistedLayout{Root: encodeNode(tree), ActivePane: active}
}

func encodeNode(tree Node) PersistedNode {
	switch n := tree.(type) {
	case *Leaf:
		return PersistedNode{
			Type:     typeLeaf,
			NotePath: n.Path,
			ViewMode: string(n.Mode),
		}
	case *Split:
		return PersistedNode{
			Type:      typeSplit,
			Direction: string(n.Dir),
			Ratio:     n.Ratio,
			Children:  []PersistedNode{encodeNode(n.First), encodeNode(n.Second)},
		}
	}
	return PersistedNode{Type: typeLeaf}
}

// Decode rebuilds a live tree from its persisted form with fresh node
// ids and returns it with the id of the active leaf. The persisted
// active index is clamped into the valid range, so a stale or corrupt
// index still yields a usable workspace. A malformed root decodes to a
// single empty pane.
func Decode(p PersistedLayout) (Node, string) {
	tree := decodeNode(p.Root)
	if tree == nil {
		tree = Node(NewLeaf())
	}
	leaves := Leaves(tree)
	active := p.ActivePane
	if active < 0 {
		active = 0
	}
	if active >= len(leaves) {
		active = len(leaves) - 1
	}
	return tree, leaves[active].ID
}

func decodeNode(p PersistedNode) Node {
	switch p.Type {
	case typeLeaf:
		l := NewLeaf()
		l.Path = p.NotePath
		if p.ViewMode != "" {
			l.Mode = ViewMode(p.ViewMode)
		}
		return l
	case typeSplit:
		if len(p.Children) != 2 {
			return nil
		}
		first := decodeNode(p.Children[0])
		second := decodeNode(p.Children[1])
		if first == nil || second == nil {
			return nil
		}
		dir := Direction(p.Direction)
		if dir != Horizontal && dir != Vertical {
			dir = Horizontal
		}
		return &Split{
			ID:     models.NewID(),
			Dir:    dir,
			Ratio:  ClampRatio(p.Ratio),
			First:  first,
			Second: second,
		}
	}
	return nil
}
