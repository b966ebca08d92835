package tabs

import "testing"

func TestOpenTab(t *testing.T) {
	r := NewRegistry()

	id1 := r.OpenTab("a.md")
	id2 := r.OpenTab("b.md")
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("ids = %q, %q", id1, id2)
	}

	if p, ok := r.NotePath(id1); !ok || p != "a.md" {
		t.Fatalf("NotePath(id1) = %q, %v", p, ok)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestClose(t *testing.T) {
	r := NewRegistry()

	id := r.OpenTab("a.md")
	r.Close(id)
	if _, ok := r.NotePath(id); ok {
		t.Fatal("tab survived Close")
	}
	r.Close("unknown") // no-op
}
