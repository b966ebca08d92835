package workspace

import (
	"context"

	"github.com/aldric/tavle/internal/layout"
)

// SwitchToTab parks the current tab's tree and installs the target
// tab's layout, creating a fresh single pane when the tab has none.
// Switching to the current tab is a no-op. Restored panes with a note
// path are refetched.
func (m *Manager) SwitchToTab(ctx context.Context, tabID string) {
	m.mu.Lock()
	if tabID == "" || tabID == m.currentTabID {
		m.mu.Unlock()
		return
	}

	if m.currentTabID != "" && m.tree != nil {
		m.tabLayouts[m.currentTabID] = &tabLayout{tree: m.tree, active: m.activePaneID}
	} else if m.tree != nil {
		// Bootstrap: a live tree exists but no tab owns it yet; the
		// new tab adopts it.
		m.currentTabID = tabID
		m.persistLocked()
		m.mu.Unlock()
		return
	}

	var targets []refetchTarget
	if tl, ok := m.tabLayouts[tabID]; ok {
		m.tree = tl.tree
		m.activePaneID = tl.active
		delete(m.tabLayouts, tabID)
		for _, l := range layout.Leaves(m.tree) {
			if l.Path != "" {
				targets = append(targets, refetchTarget{paneID: l.ID, path: l.Path})
			}
		}
	} else {
		fresh := layout.NewLeaf()
		m.tree = fresh
		m.activePaneID = fresh.ID
	}
	m.currentTabID = tabID
	m.persistLocked()
	m.mu.Unlock()

	m.refetch(ctx, targets)
}

// CreateLayoutForTab gives a new tab a fresh single-pane layout and
// makes it current. The very first tab adopts an existing live tree
// instead of discarding it.
func (m *Manager) CreateLayoutForTab(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tabID == "" || tabID == m.currentTabID {
		return
	}

	if m.currentTabID == "" && m.tree != nil {
		m.currentTabID = tabID
		m.persistLocked()
		return
	}

	if m.currentTabID != "" && m.tree != nil {
		m.tabLayouts[m.currentTabID] = &tabLayout{tree: m.tree, active: m.activePaneID}
	}
	fresh := layout.NewLeaf()
	m.tree = fresh
	m.activePaneID = fresh.ID
	m.currentTabID = tabID
	m.persistLocked()
}

// RemoveTabLayout evicts a closed tab's parked layout. Removing the
// current tab resets it to a fresh single pane.
func (m *Manager) RemoveTabLayout(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabID == m.currentTabID {
		fresh := layout.NewLeaf()
		m.tree = fresh
		m.activePaneID = fresh.ID
		m.currentTabID = ""
	} else {
		delete(m.tabLayouts, tabID)
	}
	m.persistLocked()
}

// OpenNoteInNewTab bootstraps a tab through the tab opener and opens
// the note into its fresh pane. Used when a note is opened with no
// pane context.
func (m *Manager) OpenNoteInNewTab(ctx context.Context, path string) string {
	tabID := m.opener.OpenTab(path)
	m.CreateLayoutForTab(tabID)
	m.OpenNote(ctx, "", path)
	return tabID
}
