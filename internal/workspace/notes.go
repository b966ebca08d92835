package workspace

import (
	"context"
	"log/slog"

	"github.com/aldric/tavle/internal/layout"
	"github.com/aldric/tavle/internal/models"
)

// OpenNote binds a note to a pane and loads its content. An empty
// paneID targets the active pane; with no live tree at all, a tab is
// bootstrapped first. The pane's history records the navigation.
func (m *Manager) OpenNote(ctx context.Context, paneID, path string) {
	m.mu.Lock()
	m.ensureTree()
	if paneID == "" {
		paneID = m.activePaneID
	}
	if layout.Find(m.tree, paneID) == nil {
		m.mu.Unlock()
		return
	}
	m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
		l.Path = path
		l.Loading = true
		l.History = l.History.Push(path)
		return l
	})
	m.persistLocked()
	m.mu.Unlock()

	m.loadIntoPane(ctx, paneID, path)
}

// loadIntoPane fetches path from the backend and applies the result to
// the pane. The pane is re-looked-up after the fetch: if it was closed
// or rebound in the meantime the result is dropped. A stored draft
// takes precedence over the fetched content, with the fetched content
// as the clean baseline.
func (m *Manager) loadIntoPane(ctx context.Context, paneID, path string) {
	note, err := m.svc.ReadNote(ctx, path)

	m.mu.Lock()
	current := layout.Find(m.tree, paneID)
	if current == nil || current.Path != path {
		m.mu.Unlock()
		return
	}

	if err != nil {
		m.logger.Warn("note read failed",
			slog.String("path", path), slog.String("error", err.Error()))
		m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
			l.Loading = false
			return l
		})
		m.mu.Unlock()
		return
	}

	content := note.Content
	if d, ok := m.drafts.Get(path); ok {
		content = d
	}
	m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
		l.Content = content
		l.SavedContent = note.Content
		l.Loading = false
		l.Meta = &models.NoteMetadata{
			ID:         note.ID,
			Path:       note.Path,
			Title:      note.Title,
			CreatedAt:  note.CreatedAt,
			ModifiedAt: note.ModifiedAt,
		}
		return l
	})
	m.persistLocked()
	m.mu.Unlock()

	m.emitter.EmitNoteOpen(path)
}

// UpdateContent records an edit in the pane and mirrors it into the
// shared draft cache, so every pane showing the path converges on the
// same unsaved edit.
func (m *Manager) UpdateContent(paneID, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := layout.Find(m.tree, paneID)
	if l == nil {
		return
	}
	path := l.Path
	m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
		l.Content = content
		return l
	})
	if path != "" {
		m.drafts.Save(path, content)
	}
	m.persistLocked()
}

// SaveNote writes the pane's content to the backend. On success the
// draft is cleared and every pane across every tab showing the path is
// marked clean with the new baseline. On failure the dirty state is
// left untouched so the edit can be retried.
func (m *Manager) SaveNote(ctx context.Context, paneID string) {
	m.mu.Lock()
	l := layout.Find(m.tree, paneID)
	if l == nil || l.Path == "" {
		m.mu.Unlock()
		return
	}
	path, content := l.Path, l.Content
	m.mu.Unlock()

	if _, err := m.svc.WriteNote(ctx, path, content, true); err != nil {
		m.logger.Warn("note write failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	m.mu.Lock()
	clean := func(l layout.Leaf) layout.Leaf {
		l.Content = content
		l.SavedContent = content
		return l
	}
	byPath := func(l *layout.Leaf) bool { return l.Path == path }
	m.tree = layout.UpdateWhere(m.tree, byPath, clean)
	for _, tl := range m.tabLayouts {
		tl.tree = layout.UpdateWhere(tl.tree, byPath, clean)
	}
	m.drafts.Clear(path)
	m.persistLocked()
	m.mu.Unlock()

	m.emitter.EmitNoteSave(path)
}

// Back moves the pane one history entry back and loads that note.
func (m *Manager) Back(ctx context.Context, paneID string) {
	m.navigate(ctx, paneID, layout.History.Back)
}

// Forward moves the pane one history entry forward and loads that note.
func (m *Manager) Forward(ctx context.Context, paneID string) {
	m.navigate(ctx, paneID, layout.History.Forward)
}

func (m *Manager) navigate(ctx context.Context, paneID string, step func(layout.History) (layout.History, string, bool)) {
	m.mu.Lock()
	l := layout.Find(m.tree, paneID)
	if l == nil {
		m.mu.Unlock()
		return
	}
	next, path, ok := step(l.History)
	if !ok {
		m.mu.Unlock()
		return
	}
	// Park the outgoing edit as a draft before moving away.
	if l.Dirty() && l.Path != "" {
		m.drafts.Save(l.Path, l.Content)
	}
	m.tree = layout.Update(m.tree, paneID, func(l layout.Leaf) layout.Leaf {
		l.History = next
		l.Path = path
		l.Loading = true
		return l
	})
	m.persistLocked()
	m.mu.Unlock()

	m.loadIntoPane(ctx, paneID, path)
}

// HandleNoteEvent reacts to a backend change notification: every clean
// pane showing the path is refreshed with the new content. Panes with
// unsaved edits are left alone.
func (m *Manager) HandleNoteEvent(ctx context.Context, kind, path string) {
	if kind != "created" && kind != "updated" {
		return
	}

	m.mu.Lock()
	var stale []string
	for _, l := range layout.Leaves(m.tree) {
		if l.Path == path && !l.Dirty() && !l.Loading {
			stale = append(stale, l.ID)
		}
	}
	m.mu.Unlock()

	for _, paneID := range stale {
		m.loadIntoPane(ctx, paneID, path)
	}
}
