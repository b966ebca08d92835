package index_test

import (
	"errors"
	"testing"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/index"
	"github.com/aldric/tavle/internal/testutil"
)

func TestUpsertGetNote(t *testing.T) {
	db := testutil.TestDB(t)

	row := index.NoteRow{
		Path:       "projects/tavle.md",
		Title:      "Tavle",
		Checksum:   "abc123",
		Tags:       []string{"project"},
		CreatedAt:  1000,
		ModifiedAt: 2000,
	}
	if err := db.UpsertNote(row, "body text", nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetNote("projects/tavle.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Tavle" || got.Checksum != "abc123" || got.ModifiedAt != 2000 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "project" {
		t.Fatalf("tags = %v", got.Tags)
	}
}

func TestUpsertKeepsCreatedAt(t *testing.T) {
	db := testutil.TestDB(t)

	row := index.NoteRow{Path: "a.md", CreatedAt: 1000, ModifiedAt: 1000}
	if err := db.UpsertNote(row, "v1", nil); err != nil {
		t.Fatal(err)
	}
	row.CreatedAt = 9999
	row.ModifiedAt = 2000
	if err := db.UpsertNote(row, "v2", nil); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetNote("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt != 1000 {
		t.Errorf("created_at = %d, want original 1000", got.CreatedAt)
	}
	if got.ModifiedAt != 2000 {
		t.Errorf("modified_at = %d, want 2000", got.ModifiedAt)
	}
}

func TestGetNoteMissing(t *testing.T) {
	db := testutil.TestDB(t)

	if _, err := db.GetNote("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertNote(index.NoteRow{Path: "a.md"}, "", []string{"b.md"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteNote("a.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetNote("a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("note survived delete: %v", err)
	}
	back, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 0 {
		t.Fatalf("links survived delete: %v", back)
	}
}

func TestListNotesOrderAndPaging(t *testing.T) {
	db := testutil.TestDB(t)

	for i, path := range []string{"old.md", "mid.md", "new.md"} {
		row := index.NoteRow{Path: path, ModifiedAt: int64((i + 1) * 100)}
		if err := db.UpsertNote(row, "", nil); err != nil {
			t.Fatal(err)
		}
	}

	notes, total, err := db.ListNotes(2, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(notes) != 2 || notes[0].Path != "new.md" || notes[1].Path != "mid.md" {
		t.Fatalf("page = %+v", notes)
	}

	notes, _, err = db.ListNotes(2, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Path != "old.md" {
		t.Fatalf("second page = %+v", notes)
	}
}

func TestListNotesTagFilter(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertNote(index.NoteRow{Path: "a.md", Tags: []string{"work"}}, "", nil); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertNote(index.NoteRow{Path: "b.md", Tags: []string{"home"}}, "", nil); err != nil {
		t.Fatal(err)
	}

	notes, total, err := db.ListNotes(0, 0, "work")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(notes) != 1 || notes[0].Path != "a.md" {
		t.Fatalf("filtered = %+v total=%d", notes, total)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testutil.TestDB(t)

	for path, cs := range map[string]string{"a.md": "c1", "b.md": "c2"} {
		if err := db.UpsertNote(index.NoteRow{Path: path, Checksum: cs}, "", nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["a.md"] != "c1" || got["b.md"] != "c2" {
		t.Fatalf("checksums = %v", got)
	}
}

func TestBacklinks(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertNote(index.NoteRow{Path: "a.md"}, "", []string{"hub.md"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertNote(index.NoteRow{Path: "b.md"}, "", []string{"hub.md", "a.md"}); err != nil {
		t.Fatal(err)
	}

	back, err := db.Backlinks("hub.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[0] != "a.md" || back[1] != "b.md" {
		t.Fatalf("backlinks = %v", back)
	}

	// Re-indexing a source replaces its link set.
	if err := db.UpsertNote(index.NoteRow{Path: "a.md"}, "", nil); err != nil {
		t.Fatal(err)
	}
	back, err = db.Backlinks("hub.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0] != "b.md" {
		t.Fatalf("backlinks after reindex = %v", back)
	}
}

func TestSearch(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertNote(index.NoteRow{Path: "a.md", Title: "Quarterly plan"}, "roadmap and milestones", nil); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertNote(index.NoteRow{Path: "b.md", Title: "Groceries"}, "milk eggs", nil); err != nil {
		t.Fatal(err)
	}

	hits, err := db.Search("roadmap", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Fatalf("hits = %+v", hits)
	}

	hits, err = db.Search("zzznothing", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("unexpected hits = %+v", hits)
	}
}
