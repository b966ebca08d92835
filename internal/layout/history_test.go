package layout

import (
	"fmt"
	"testing"
)

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()

	if h.Index() != -1 || h.Len() != 0 {
		t.Fatalf("empty history index=%d len=%d", h.Index(), h.Len())
	}
	if _, ok := h.Current(); ok {
		t.Fatal("Current on empty history reported ok")
	}
	if h.CanBack() || h.CanForward() {
		t.Fatal("empty history claims navigable")
	}
}

func TestHistoryPushAndBack(t *testing.T) {
	h := NewHistory().Push("a.md").Push("b.md").Push("c.md")

	if cur, _ := h.Current(); cur != "c.md" {
		t.Fatalf("current = %q", cur)
	}
	h, path, ok := h.Back()
	if !ok || path != "b.md" {
		t.Fatalf("Back = %q, %v", path, ok)
	}
	h, path, ok = h.Back()
	if !ok || path != "a.md" {
		t.Fatalf("Back = %q, %v", path, ok)
	}
	if _, _, ok := h.Back(); ok {
		t.Fatal("Back past the oldest entry succeeded")
	}
}

func TestHistoryForward(t *testing.T) {
	h := NewHistory().Push("a.md").Push("b.md")
	h, _, _ = h.Back()

	h, path, ok := h.Forward()
	if !ok || path != "b.md" {
		t.Fatalf("Forward = %q, %v", path, ok)
	}
	if _, _, ok := h.Forward(); ok {
		t.Fatal("Forward past the newest entry succeeded")
	}
}

func TestHistoryPushTruncatesForward(t *testing.T) {
	h := NewHistory().Push("a.md").Push("b.md").Push("c.md")
	h, _, _ = h.Back()
	h, _, _ = h.Back()

	h = h.Push("d.md")
	want := []string{"a.md", "d.md"}
	got := h.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
	if h.CanForward() {
		t.Fatal("forward entries survived a branch")
	}
}

func TestHistoryPushDuplicateAtCursor(t *testing.T) {
	h := NewHistory().Push("a.md").Push("a.md")

	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory()
	for i := 0; i < HistoryLimit+10; i++ {
		h = h.Push(fmt.Sprintf("n%03d.md", i))
	}

	if h.Len() != HistoryLimit {
		t.Fatalf("len = %d, want %d", h.Len(), HistoryLimit)
	}
	if got := h.Entries()[0]; got != "n010.md" {
		t.Fatalf("oldest entry = %q, want oldest dropped first", got)
	}
	if cur, _ := h.Current(); cur != fmt.Sprintf("n%03d.md", HistoryLimit+9) {
		t.Fatalf("current = %q", cur)
	}
}

func TestHistoryValuesAreIndependent(t *testing.T) {
	base := NewHistory().Push("a.md")
	left := base.Push("b.md")
	right := base.Push("c.md")

	if cur, _ := left.Current(); cur != "b.md" {
		t.Fatalf("left current = %q", cur)
	}
	if cur, _ := right.Current(); cur != "c.md" {
		t.Fatalf("right current = %q", cur)
	}
	if base.Len() != 1 {
		t.Fatalf("base mutated, len = %d", base.Len())
	}
}
