package state

import (
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := tempStore(t)
	if err := s.Put(KeyLayout, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get(KeyLayout)
	if !ok {
		t.Fatal("expected blob")
	}
	if string(got) != `{"a":1}` {
		t.Errorf("blob = %q", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	if _, ok := s.Get("nope"); ok {
		t.Error("expected missing key")
	}
}

func TestOverwrite(t *testing.T) {
	s := tempStore(t)
	_ = s.Put(KeyDrafts, []byte("one"))
	_ = s.Put(KeyDrafts, []byte("two"))
	got, _ := s.Get(KeyDrafts)
	if string(got) != "two" {
		t.Errorf("blob = %q, want %q", got, "two")
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Put(KeyTabLayouts, []byte("x"))
	if err := s.Delete(KeyTabLayouts); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(KeyTabLayouts); ok {
		t.Error("expected key to be gone")
	}
}
