// Package workspace owns the live pane layout: one mutex-guarded state
// holding the current tab's tree, every other tab's tree, the draft
// cache, and the active pane. All mutation goes through Manager
// methods; the tree itself is replaced copy-on-write on every change,
// never mutated in place.
package workspace

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aldric/tavle/internal/backend"
	"github.com/aldric/tavle/internal/draft"
	"github.com/aldric/tavle/internal/hooks"
	"github.com/aldric/tavle/internal/layout"
	"github.com/aldric/tavle/internal/state"
	"github.com/aldric/tavle/internal/tabs"
)

// tabLayout is one inactive tab's parked tree. Trees are kept live,
// not serialized, so a save can reach panes in background tabs.
type tabLayout struct {
	tree   layout.Node
	active string
}

// Manager is the workspace state owner.
type Manager struct {
	mu sync.Mutex

	tree         layout.Node
	activePaneID string
	currentTabID string
	tabLayouts   map[string]*tabLayout

	drafts  *draft.Cache
	store   *state.Store
	svc     backend.Service
	opener  tabs.Opener
	emitter *hooks.Emitter
	logger  *slog.Logger
}

// NewManager creates a workspace over the given collaborators. store,
// opener, and emitter may be nil; a nil store disables persistence.
func NewManager(svc backend.Service, store *state.Store, opener tabs.Opener, emitter *hooks.Emitter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opener == nil {
		opener = tabs.NewRegistry()
	}
	if emitter == nil {
		emitter = hooks.NewEmitter(logger)
	}
	return &Manager{
		tabLayouts: make(map[string]*tabLayout),
		drafts:     draft.NewCache(),
		store:      store,
		svc:        svc,
		opener:     opener,
		emitter:    emitter,
		logger:     logger,
	}
}

// Tree returns the current tree snapshot. Consumers must treat it as
// immutable; change detection is by reference comparison.
func (m *Manager) Tree() layout.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree
}

// ActivePaneID returns the active pane's id.
func (m *Manager) ActivePaneID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activePaneID
}

// CurrentTabID returns the current tab's id, "" before bootstrap.
func (m *Manager) CurrentTabID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTabID
}

// Drafts exposes the shared draft cache.
func (m *Manager) Drafts() *draft.Cache {
	return m.drafts
}

// Pane returns a snapshot copy of one leaf.
func (m *Manager) Pane(id string) (layout.Leaf, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := layout.Find(m.tree, id)
	if l == nil {
		return layout.Leaf{}, false
	}
	return *l, true
}

// ensureTree bootstraps a single empty pane when no tree exists yet.
// Caller holds the lock.
func (m *Manager) ensureTree() {
	if m.tree != nil {
		return
	}
	l := layout.NewLeaf()
	m.tree = l
	m.activePaneID = l.ID
	if m.currentTabID == "" {
		m.currentTabID = m.opener.OpenTab("")
	}
}

// persistLocked serializes every tab layout plus the draft snapshot.
// Caller holds the lock. Persistence failures are logged, never
// propagated: the in-memory state stays authoritative.
func (m *Manager) persistLocked() {
	if m.store == nil {
		return
	}

	persisted := layout.PersistedTabs{
		CurrentTabID: m.currentTabID,
		Layouts:      make(map[string]layout.PersistedLayout, len(m.tabLayouts)+1),
	}
	for id, tl := range m.tabLayouts {
		persisted.Layouts[id] = layout.Encode(tl.tree, tl.active)
	}
	if m.tree != nil && m.currentTabID != "" {
		persisted.Layouts[m.currentTabID] = layout.Encode(m.tree, m.activePaneID)
	}

	raw, err := json.Marshal(persisted)
	if err != nil {
		m.logger.Error("marshal layouts failed", slog.String("error", err.Error()))
		return
	}
	if err := m.store.Put(state.KeyTabLayouts, raw); err != nil {
		m.logger.Error("persist layouts failed", slog.String("error", err.Error()))
	}

	draftsRaw, err := json.Marshal(m.drafts.Snapshot())
	if err == nil {
		if err := m.store.Put(state.KeyDrafts, draftsRaw); err != nil {
			m.logger.Error("persist drafts failed", slog.String("error", err.Error()))
		}
	}
}

// Restore loads the persisted workspace. The per-tab format is
// preferred; a legacy single-layout blob is migrated as the first
// tab's layout. Corrupt or missing blobs fall back to a fresh single
// pane. Restored leaves with a note path are refetched concurrently.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()

	if m.store != nil {
		if raw, ok := m.store.Get(state.KeyDrafts); ok {
			var drafts map[string]string
			if err := json.Unmarshal(raw, &drafts); err == nil {
				m.drafts.Restore(drafts)
			} else {
				m.logger.Warn("corrupt draft blob ignored", slog.String("error", err.Error()))
			}
		}

		if raw, ok := m.store.Get(state.KeyTabLayouts); ok {
			var persisted layout.PersistedTabs
			if err := json.Unmarshal(raw, &persisted); err == nil && len(persisted.Layouts) > 0 {
				m.installPersistedLocked(persisted)
			} else if err != nil {
				m.logger.Warn("corrupt layout blob ignored", slog.String("error", err.Error()))
			}
		} else if raw, ok := m.store.Get(state.KeyLayout); ok {
			// Legacy single-layout blob becomes the first tab.
			var legacy layout.PersistedLayout
			if err := json.Unmarshal(raw, &legacy); err == nil {
				tabID := m.opener.OpenTab("")
				m.installPersistedLocked(layout.PersistedTabs{
					CurrentTabID: tabID,
					Layouts:      map[string]layout.PersistedLayout{tabID: legacy},
				})
				_ = m.store.Delete(state.KeyLayout)
			} else {
				m.logger.Warn("corrupt legacy layout ignored", slog.String("error", err.Error()))
			}
		}
	}

	m.ensureTree()
	m.persistLocked()

	var paths []refetchTarget
	for _, l := range layout.Leaves(m.tree) {
		if l.Path != "" {
			paths = append(paths, refetchTarget{paneID: l.ID, path: l.Path})
		}
	}
	m.mu.Unlock()

	m.refetch(ctx, paths)
}

// installPersistedLocked decodes every persisted tab and installs the
// current one as the live tree. Caller holds the lock.
func (m *Manager) installPersistedLocked(persisted layout.PersistedTabs) {
	m.tabLayouts = make(map[string]*tabLayout, len(persisted.Layouts))
	for tabID, pl := range persisted.Layouts {
		tree, active := layout.Decode(pl)
		m.tabLayouts[tabID] = &tabLayout{tree: tree, active: active}
	}

	current := persisted.CurrentTabID
	if _, ok := m.tabLayouts[current]; !ok {
		for id := range m.tabLayouts {
			current = id
			break
		}
	}
	if tl, ok := m.tabLayouts[current]; ok {
		m.tree = tl.tree
		m.activePaneID = tl.active
		m.currentTabID = current
		delete(m.tabLayouts, current)
	}
}

type refetchTarget struct {
	paneID string
	path   string
}

// refetch loads note content for restored panes concurrently and
// applies each result through the lock. A pane that vanished while its
// fetch was in flight is silently skipped.
func (m *Manager) refetch(ctx context.Context, targets []refetchTarget) {
	if len(targets) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			m.loadIntoPane(ctx, t.paneID, t.path)
			return nil
		})
	}
	_ = g.Wait()
}
