package workspace

import (
	"github.com/aldric/tavle/internal/layout"
)

// SplitPane replaces the pane with a split holding the original pane
// and a fresh empty one; the empty pane becomes active. Unknown ids
// are a no-op.
func (m *Manager) SplitPane(paneID string, dir layout.Direction) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTree()

	next, fresh := layout.SplitLeaf(m.tree, paneID, dir)
	if fresh == nil {
		return ""
	}
	m.tree = next
	m.activePaneID = fresh.ID
	m.persistLocked()
	return fresh.ID
}

// ClosePane removes a pane, promoting its sibling. Closing the last
// pane is refused. A dirty pane's content is parked in the draft cache
// before it disappears; if the active pane was closed, the sibling's
// first leaf becomes active.
func (m *Manager) ClosePane(paneID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, pos := layout.FindParent(m.tree, paneID)
	if parent == nil {
		return
	}
	sibling := parent.Second
	if pos == 1 {
		sibling = parent.First
	}

	next, removed, ok := layout.Close(m.tree, paneID)
	if !ok {
		return
	}
	if removed.Dirty() && removed.Path != "" {
		m.drafts.Save(removed.Path, removed.Content)
	}
	m.tree = next
	if m.activePaneID == paneID {
		m.activePaneID = layout.Leaves(sibling)[0].ID
	}
	m.persistLocked()
}

// SetRatio adjusts a split's ratio, clamped to the allowed range.
func (m *Manager) SetRatio(splitID string, ratio int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := layout.SetRatio(m.tree, splitID, ratio)
	if next == m.tree {
		return
	}
	m.tree = next
	m.persistLocked()
}

// SetViewMode changes how a pane renders its note.
func (m *Manager) SetViewMode(paneID string, mode layout.ViewMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if layout.Find(m.tree, paneID) == nil {
		return
	}
	m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
		l.Mode = mode
		return l
	})
	m.persistLocked()
}

// SetActivePane marks a pane active. Unknown ids are a no-op.
func (m *Manager) SetActivePane(paneID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if layout.Find(m.tree, paneID) == nil {
		return
	}
	m.activePaneID = paneID
	m.persistLocked()
}
