package workspace

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/backend"
	"github.com/aldric/tavle/internal/layout"
	"github.com/aldric/tavle/internal/models"
	"github.com/aldric/tavle/internal/state"
	"github.com/aldric/tavle/internal/testutil"
)

// fakeService implements backend.Service over an in-memory note map.
type fakeService struct {
	mu       sync.Mutex
	notes    map[string]string
	writes   []string
	readGate chan struct{} // when non-nil, ReadNote blocks until closed
	failRead bool
}

var _ backend.Service = (*fakeService)(nil)

func newFakeService(notes map[string]string) *fakeService {
	if notes == nil {
		notes = make(map[string]string)
	}
	return &fakeService{notes: notes}
}

func (f *fakeService) ReadNote(_ context.Context, path string) (*models.Note, error) {
	f.mu.Lock()
	gate := f.readGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, apperr.ErrNotFound
	}
	content, ok := f.notes[path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &models.Note{ID: path, Path: path, Title: path, Content: content}, nil
}

func (f *fakeService) WriteNote(_ context.Context, path, content string, _ bool) (*models.NoteMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[path] = content
	f.writes = append(f.writes, path)
	return &models.NoteMetadata{ID: path, Path: path, Title: path}, nil
}

func (f *fakeService) DeleteNote(context.Context, string) error { return nil }
func (f *fakeService) ListNotes(context.Context, int, int, string) ([]models.NoteMetadata, int, error) {
	return nil, 0, nil
}
func (f *fakeService) Search(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, nil
}
func (f *fakeService) ListBoards(context.Context) ([]models.Board, error) { return nil, nil }
func (f *fakeService) GetBoard(context.Context, string) (*models.Board, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) CreateBoard(context.Context, string, models.BoardKind, string) (*models.Board, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) DeleteBoard(context.Context, string) error { return nil }
func (f *fakeService) AddColumn(context.Context, string, models.Column) (*models.Board, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) ListAllCards(context.Context) ([]models.Card, error) { return nil, nil }
func (f *fakeService) AddCard(context.Context, models.Card) (*models.Card, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) UpdateCard(context.Context, models.Card) (*models.Card, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) MoveCard(context.Context, string, string, int) (*models.Card, error) {
	return nil, apperr.ErrNotFound
}
func (f *fakeService) DeleteCard(context.Context, string) error { return nil }

type recordingHooks struct {
	mu     sync.Mutex
	opened []string
	saved  []string
}

func (r *recordingHooks) NoteOpened(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, path)
}

func (r *recordingHooks) NoteSaved(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, path)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, svc backend.Service) (*Manager, *state.Store) {
	t.Helper()
	st := testutil.TestStateStore(t)
	return NewManager(svc, st, nil, nil, quietLogger()), st
}

func ctxb() context.Context { return context.Background() }

func TestOpenNoteLoadsContent(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha"})
	m, _ := newTestManager(t, svc)

	m.OpenNote(ctxb(), "", "a.md")

	pane, ok := m.Pane(m.ActivePaneID())
	if !ok {
		t.Fatal("no active pane")
	}
	if pane.Path != "a.md" || pane.Content != "alpha" || pane.SavedContent != "alpha" {
		t.Fatalf("pane = %+v", pane)
	}
	if pane.Dirty() || pane.Loading {
		t.Fatalf("pane not clean after open: %+v", pane)
	}
	if cur, _ := pane.History.Current(); cur != "a.md" {
		t.Fatalf("history current = %q", cur)
	}
	if pane.Meta == nil || pane.Meta.Title != "a.md" {
		t.Fatalf("meta = %+v", pane.Meta)
	}
}

func TestOpenNoteDraftPrecedence(t *testing.T) {
	svc := newFakeService(map[string]string{"n.md": "X"})
	m, _ := newTestManager(t, svc)
	m.Drafts().Save("n.md", "Y")

	m.OpenNote(ctxb(), "", "n.md")

	pane, _ := m.Pane(m.ActivePaneID())
	if pane.Content != "Y" {
		t.Fatalf("content = %q, want draft", pane.Content)
	}
	if pane.SavedContent != "X" {
		t.Fatalf("baseline = %q, want backend content", pane.SavedContent)
	}
	if !pane.Dirty() {
		t.Fatal("pane with draft over different backend content must be dirty")
	}
}

func TestOpenNoteReadFailure(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)

	m.OpenNote(ctxb(), "", "ghost.md")

	pane, _ := m.Pane(m.ActivePaneID())
	if pane.Loading {
		t.Fatal("loading flag stuck after failed read")
	}
	if pane.Content != "" {
		t.Fatalf("content = %q", pane.Content)
	}
}

func TestSplitActivatesNewPane(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	orig := m.ActivePaneID()

	fresh := m.SplitPane(orig, layout.Vertical)
	if fresh == "" || fresh == orig {
		t.Fatalf("fresh = %q", fresh)
	}
	if m.ActivePaneID() != fresh {
		t.Fatal("new empty pane did not become active")
	}

	// The original pane kept its state.
	pane, _ := m.Pane(orig)
	if pane.Path != "a.md" || pane.Content != "alpha" {
		t.Fatalf("original pane = %+v", pane)
	}
	if s, ok := m.Tree().(*layout.Split); !ok || s.Ratio != layout.DefaultRatio {
		t.Fatalf("root = %+v", m.Tree())
	}
}

func TestSplitUnknownPane(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "")

	before := m.Tree()
	if got := m.SplitPane("missing", layout.Horizontal); got != "" {
		t.Fatalf("split returned %q", got)
	}
	if m.Tree() != before {
		t.Fatal("tree changed on unknown-id split")
	}
}

func TestClosePaneCapturesDraft(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	first := m.ActivePaneID()
	m.UpdateContent(first, "edited")
	m.SplitPane(first, layout.Horizontal)

	m.ClosePane(first)

	if d, ok := m.Drafts().Get("a.md"); !ok || d != "edited" {
		t.Fatalf("draft = %q, %v", d, ok)
	}
	if _, ok := m.Pane(first); ok {
		t.Fatal("closed pane still present")
	}
}

func TestCloseActivePanePromotesSiblingLeaf(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	first := m.ActivePaneID()
	fresh := m.SplitPane(first, layout.Horizontal)

	m.ClosePane(fresh) // fresh is active
	if m.ActivePaneID() != first {
		t.Fatalf("active = %s, want %s", m.ActivePaneID(), first)
	}
}

func TestCloseLastPaneRefused(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "")
	only := m.ActivePaneID()

	m.ClosePane(only)
	if _, ok := m.Pane(only); !ok {
		t.Fatal("the last pane was closed")
	}
}

func TestSaveNoteCrossTabSync(t *testing.T) {
	svc := newFakeService(map[string]string{"n1.md": "v1"})
	m, _ := newTestManager(t, svc)
	hooksRec := &recordingHooks{}
	m.emitter.Register(hooksRec)

	// Tab one shows n1.md.
	m.OpenNote(ctxb(), "", "n1.md")
	tabOne := m.CurrentTabID()
	paneOne := m.ActivePaneID()

	// Tab two shows the same note and edits it.
	m.CreateLayoutForTab("tab-two")
	m.OpenNote(ctxb(), "", "n1.md")
	paneTwo := m.ActivePaneID()
	m.UpdateContent(paneTwo, "v2")

	if p, _ := m.Pane(paneTwo); !p.Dirty() {
		t.Fatal("edit did not mark pane dirty")
	}

	m.SaveNote(ctxb(), paneTwo)

	// The saving pane is clean.
	if p, _ := m.Pane(paneTwo); p.Dirty() || p.SavedContent != "v2" {
		t.Fatalf("saving pane = %+v", p)
	}
	// The draft is gone.
	if m.Drafts().Has("n1.md") {
		t.Fatal("draft survived save")
	}
	// The pane in the parked tab got the new baseline too.
	m.SwitchToTab(ctxb(), tabOne)
	if p, ok := m.Pane(paneOne); !ok || p.Dirty() || p.Content != "v2" || p.SavedContent != "v2" {
		t.Fatalf("parked-tab pane = %+v", p)
	}
	hooksRec.mu.Lock()
	defer hooksRec.mu.Unlock()
	if len(hooksRec.saved) != 1 || hooksRec.saved[0] != "n1.md" {
		t.Fatalf("save hooks = %v", hooksRec.saved)
	}
}

func TestStaleFetchIsDropped(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha", "slow.md": "late"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	first := m.ActivePaneID()
	fresh := m.SplitPane(first, layout.Horizontal)

	gate := make(chan struct{})
	svc.mu.Lock()
	svc.readGate = gate
	svc.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.OpenNote(ctxb(), fresh, "slow.md")
		close(done)
	}()

	// Wait until the open is parked inside the fetch, then close the
	// pane out from under it.
	waitFor(t, func() bool {
		p, ok := m.Pane(fresh)
		return ok && p.Loading
	})
	svc.mu.Lock()
	svc.readGate = nil
	svc.mu.Unlock()
	m.ClosePane(fresh)
	close(gate)
	<-done

	// The resolved fetch found no pane and dropped its result.
	if _, ok := m.Pane(fresh); ok {
		t.Fatal("closed pane reappeared")
	}
	if p, _ := m.Pane(first); p.Content != "alpha" {
		t.Fatalf("surviving pane corrupted: %+v", p)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestSetViewModeAndRatio(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "")
	first := m.ActivePaneID()
	m.SplitPane(first, layout.Horizontal)

	m.SetViewMode(first, layout.ModePreview)
	if p, _ := m.Pane(first); p.Mode != layout.ModePreview {
		t.Fatalf("mode = %s", p.Mode)
	}

	root := m.Tree().(*layout.Split)
	m.SetRatio(root.ID, 95)
	if got := m.Tree().(*layout.Split).Ratio; got != layout.MaxRatio {
		t.Fatalf("ratio = %d, want clamped %d", got, layout.MaxRatio)
	}
}

func TestBackForward(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "A", "b.md": "B"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	pane := m.ActivePaneID()
	m.OpenNote(ctxb(), pane, "b.md")

	m.Back(ctxb(), pane)
	if p, _ := m.Pane(pane); p.Path != "a.md" || p.Content != "A" {
		t.Fatalf("after back: %+v", p)
	}

	m.Forward(ctxb(), pane)
	if p, _ := m.Pane(pane); p.Path != "b.md" || p.Content != "B" {
		t.Fatalf("after forward: %+v", p)
	}

	// At the newest entry, forward is a no-op.
	m.Forward(ctxb(), pane)
	if p, _ := m.Pane(pane); p.Path != "b.md" {
		t.Fatalf("forward past tip moved pane: %+v", p)
	}
}

func TestSwitchToTabIsolatesLayouts(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "A"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	tabOne := m.CurrentTabID()
	m.SplitPane(m.ActivePaneID(), layout.Vertical)

	m.SwitchToTab(ctxb(), "tab-two")
	if len(layout.Leaves(m.Tree())) != 1 {
		t.Fatal("new tab did not start with a single pane")
	}
	if m.CurrentTabID() != "tab-two" {
		t.Fatalf("current tab = %s", m.CurrentTabID())
	}

	m.SwitchToTab(ctxb(), tabOne)
	if len(layout.Leaves(m.Tree())) != 2 {
		t.Fatal("tab one's split layout was lost")
	}
}

func TestSwitchToCurrentTabNoOp(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "")
	before := m.Tree()

	m.SwitchToTab(ctxb(), m.CurrentTabID())
	if m.Tree() != before {
		t.Fatal("switching to the current tab rebuilt the tree")
	}
}

func TestRemoveTabLayout(t *testing.T) {
	svc := newFakeService(nil)
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "")
	tabOne := m.CurrentTabID()
	m.SwitchToTab(ctxb(), "tab-two")

	m.RemoveTabLayout(tabOne)
	m.SwitchToTab(ctxb(), tabOne)
	if len(layout.Leaves(m.Tree())) != 1 {
		t.Fatal("removed tab came back with stale layout")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	svc := newFakeService(map[string]string{"a.md": "alpha", "b.md": "beta"})
	m, st := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "a.md")
	first := m.ActivePaneID()
	fresh := m.SplitPane(first, layout.Horizontal)
	m.OpenNote(ctxb(), fresh, "b.md")
	m.SetViewMode(fresh, layout.ModePreview)
	tabID := m.CurrentTabID()

	// A draft survives the restart too.
	m.UpdateContent(fresh, "beta draft")

	restored := NewManager(svc, st, nil, nil, quietLogger())
	restored.Restore(ctxb())

	if restored.CurrentTabID() != tabID {
		t.Fatalf("current tab = %s, want %s", restored.CurrentTabID(), tabID)
	}
	leaves := layout.Leaves(restored.Tree())
	if len(leaves) != 2 {
		t.Fatalf("got %d leaves", len(leaves))
	}
	if leaves[0].Path != "a.md" || leaves[1].Path != "b.md" {
		t.Fatalf("paths = %s, %s", leaves[0].Path, leaves[1].Path)
	}
	if leaves[1].Mode != layout.ModePreview {
		t.Fatalf("mode = %s", leaves[1].Mode)
	}
	// Content was refetched, with the draft taking precedence.
	if leaves[0].Content != "alpha" {
		t.Fatalf("leaf 0 content = %q", leaves[0].Content)
	}
	if leaves[1].Content != "beta draft" || leaves[1].SavedContent != "beta" {
		t.Fatalf("leaf 1 = %q over %q", leaves[1].Content, leaves[1].SavedContent)
	}
	// The active pane resolved by position.
	if restored.ActivePaneID() != leaves[1].ID {
		t.Fatalf("active = %s", restored.ActivePaneID())
	}
}

func TestRestoreLegacyLayout(t *testing.T) {
	svc := newFakeService(map[string]string{"old.md": "legacy"})
	st := testutil.TestStateStore(t)
	if err := st.Put(state.KeyLayout, []byte(`{"root":{"type":"leaf","notePath":"old.md"},"activePaneIndex":0}`)); err != nil {
		t.Fatal(err)
	}

	m := NewManager(svc, st, nil, nil, quietLogger())
	m.Restore(ctxb())

	if m.CurrentTabID() == "" {
		t.Fatal("legacy layout got no tab")
	}
	leaves := layout.Leaves(m.Tree())
	if len(leaves) != 1 || leaves[0].Path != "old.md" || leaves[0].Content != "legacy" {
		t.Fatalf("leaves = %+v", leaves)
	}
	// The legacy blob is migrated away.
	if _, ok := st.Get(state.KeyLayout); ok {
		t.Fatal("legacy blob not removed after migration")
	}
	if _, ok := st.Get(state.KeyTabLayouts); !ok {
		t.Fatal("migrated layout not persisted in per-tab format")
	}
}

func TestRestoreCorruptBlobFallsBack(t *testing.T) {
	svc := newFakeService(nil)
	st := testutil.TestStateStore(t)
	if err := st.Put(state.KeyTabLayouts, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	m := NewManager(svc, st, nil, nil, quietLogger())
	m.Restore(ctxb())

	leaves := layout.Leaves(m.Tree())
	if len(leaves) != 1 || leaves[0].Path != "" {
		t.Fatalf("fallback tree = %+v", leaves)
	}
}

func TestHandleNoteEventRefreshesCleanPane(t *testing.T) {
	svc := newFakeService(map[string]string{"n.md": "v1"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "n.md")
	pane := m.ActivePaneID()

	svc.mu.Lock()
	svc.notes["n.md"] = "v2"
	svc.mu.Unlock()

	m.HandleNoteEvent(ctxb(), "updated", "n.md")

	if p, _ := m.Pane(pane); p.Content != "v2" || p.SavedContent != "v2" {
		t.Fatalf("clean pane not refreshed: %+v", p)
	}

	// Unrelated event kinds are ignored.
	svc.mu.Lock()
	svc.notes["n.md"] = "v3"
	svc.mu.Unlock()
	m.HandleNoteEvent(ctxb(), "deleted", "n.md")
	if p, _ := m.Pane(pane); p.Content != "v2" {
		t.Fatalf("pane refreshed on deleted event: %+v", p)
	}
}

func TestHandleNoteEventSkipsDirtyPane(t *testing.T) {
	svc := newFakeService(map[string]string{"n.md": "v1"})
	m, _ := newTestManager(t, svc)
	m.OpenNote(ctxb(), "", "n.md")
	pane := m.ActivePaneID()
	m.UpdateContent(pane, "local edit")

	svc.mu.Lock()
	svc.notes["n.md"] = "v2"
	svc.mu.Unlock()

	m.HandleNoteEvent(ctxb(), "updated", "n.md")

	if p, _ := m.Pane(pane); p.Content != "local edit" || p.SavedContent != "v1" {
		t.Fatalf("dirty pane clobbered: %+v", p)
	}
}
